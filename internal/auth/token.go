// Package auth verifies the HS256 session tokens issued by the managed auth
// provider and exposes the caller's identity to request handlers.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingSigningKey  = errors.New("auth: missing signing key")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrExpiredToken       = errors.New("auth: token is expired")
	ErrInvalidSignature   = errors.New("auth: invalid signature")
	ErrUnexpectedAlg      = errors.New("auth: unexpected signing algorithm")
	ErrIdentityNotInToken = errors.New("auth: token carries no user identity")
)

// Config holds the shared secret the auth provider signs session tokens with.
type Config struct {
	SessionSecret string `env:"AUTH_JWT_SECRET,required"`
}

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims are the session-token claims this service consumes. The subject is
// the opaque user id; email is required by the subscription initiator.
type Claims struct {
	Subject   string `json:"sub,omitempty"`
	Email     string `json:"email,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid checks temporal claims against the current time. Zero values are
// treated as unset and ignored.
func (c Claims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return ErrExpiredToken
	}
	return nil
}

// Verifier validates session tokens with HMAC-SHA256.
type Verifier struct {
	signingKey []byte
}

// NewVerifier creates a Verifier for the given shared secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingSigningKey
	}
	return &Verifier{signingKey: []byte(secret)}, nil
}

// Parse validates a session token and returns its claims. It verifies the
// signature, rejects algorithms other than HS256 and checks expiry.
func (v *Verifier) Parse(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var h header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return Claims{}, ErrInvalidToken
	}
	if h.Algorithm != "HS256" {
		return Claims{}, fmt.Errorf("%w: %s", ErrUnexpectedAlg, h.Algorithm)
	}

	payload := parts[0] + "." + parts[1]
	expected := v.sign(payload)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[2])) != 1 {
		return Claims{}, ErrInvalidSignature
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}

	if err := claims.Valid(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// Generate creates a signed token for the given claims. Used by tests and
// local tooling; production tokens come from the auth provider.
func (v *Verifier) Generate(claims Claims) (string, error) {
	headerJSON, err := json.Marshal(header{Type: "JWT", Algorithm: "HS256"})
	if err != nil {
		return "", err
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + v.sign(payload), nil
}

func (v *Verifier) sign(payload string) string {
	mac := hmac.New(sha256.New, v.signingKey)
	mac.Write([]byte(payload))
	return base64URLEncode(mac.Sum(nil))
}

func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
