package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MercadoPagoConfig holds the credentials and tuning for the MercadoPago
// preapproval API client.
type MercadoPagoConfig struct {
	AccessToken string        `env:"MERCADOPAGO_ACCESS_TOKEN,required"`
	BaseURL     string        `env:"MERCADOPAGO_BASE_URL" envDefault:"https://api.mercadopago.com"`
	Timeout     time.Duration `env:"MERCADOPAGO_TIMEOUT" envDefault:"15s"`
}

// MercadoPagoClient implements PreapprovalProvider against the MercadoPago
// REST API.
type MercadoPagoClient struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// NewMercadoPagoClient creates a MercadoPago preapproval client.
func NewMercadoPagoClient(cfg MercadoPagoConfig) (*MercadoPagoClient, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("billing: mercadopago access token is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &MercadoPagoClient{
		accessToken: cfg.AccessToken,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type mpAutoRecurring struct {
	Frequency         int     `json:"frequency"`
	FrequencyType     string  `json:"frequency_type"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
	NextPaymentDate   string  `json:"next_payment_date,omitempty"`
}

type mpPreapprovalBody struct {
	Reason            string          `json:"reason"`
	ExternalReference string          `json:"external_reference"`
	PayerEmail        string          `json:"payer_email"`
	BackURL           string          `json:"back_url"`
	AutoRecurring     mpAutoRecurring `json:"auto_recurring"`
	Status            string          `json:"status"`
}

type mpPreapprovalResponse struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference"`
	InitPoint         string          `json:"init_point"`
	SandboxInitPoint  string          `json:"sandbox_init_point"`
	AutoRecurring     mpAutoRecurring `json:"auto_recurring"`
}

type mpErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// CreatePreapproval implements PreapprovalProvider.
func (c *MercadoPagoClient) CreatePreapproval(ctx context.Context, req PreapprovalRequest) (*Preapproval, error) {
	frequency := req.FrequencyMonths
	if frequency <= 0 {
		frequency = 1
	}
	body := mpPreapprovalBody{
		Reason:            req.Reason,
		ExternalReference: req.ExternalReference,
		PayerEmail:        req.PayerEmail,
		BackURL:           req.BackURL,
		AutoRecurring: mpAutoRecurring{
			Frequency:         frequency,
			FrequencyType:     "months",
			TransactionAmount: req.Amount.Units(),
			CurrencyID:        req.Amount.Currency,
		},
		// New preapprovals start pending; the user authorizes the
		// recurring charge at the init point.
		Status: "pending",
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreapprovalCreate, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/preapproval", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreapprovalCreate, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreapprovalCreate, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreapprovalCreate, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrPreapprovalCreate, errorMessage(resp.StatusCode, respBody))
	}

	var mp mpPreapprovalResponse
	if err := json.Unmarshal(respBody, &mp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreapprovalCreate, err)
	}
	return mp.preapproval(), nil
}

// GetPreapproval implements PreapprovalProvider.
func (c *MercadoPagoClient) GetPreapproval(ctx context.Context, id string) (*Preapproval, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/preapproval/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreapprovalFetch, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreapprovalFetch, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreapprovalFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrPreapprovalFetch, errorMessage(resp.StatusCode, respBody))
	}

	var mp mpPreapprovalResponse
	if err := json.Unmarshal(respBody, &mp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreapprovalFetch, err)
	}
	return mp.preapproval(), nil
}

func (r *mpPreapprovalResponse) preapproval() *Preapproval {
	p := &Preapproval{
		ID:                r.ID,
		Status:            r.Status,
		ExternalReference: r.ExternalReference,
		InitPoint:         r.InitPoint,
		SandboxInitPoint:  r.SandboxInitPoint,
	}
	if r.AutoRecurring.NextPaymentDate != "" {
		if t, err := time.Parse(time.RFC3339, r.AutoRecurring.NextPaymentDate); err == nil {
			p.NextPaymentAt = &t
		}
	}
	return p
}

// errorMessage extracts the processor's error message from a non-2xx
// response, falling back to the HTTP status.
func errorMessage(status int, body []byte) string {
	var mpErr mpErrorResponse
	if err := json.Unmarshal(body, &mpErr); err == nil {
		if mpErr.Message != "" {
			return mpErr.Message
		}
		if mpErr.Error != "" {
			return mpErr.Error
		}
	}
	return fmt.Sprintf("unexpected status %d", status)
}
