package billing

import (
	"encoding/json"
	"strings"
)

// notificationID extracts the preapproval ID from a webhook notification
// body. The processor sends three shapes depending on the notification
// topic, tried in order:
//
//  1. {"type":"subscription_preapproval","data":{"id":"..."}}
//  2. {"id":"..."} (id may also be a bare number)
//  3. {"resource":"https://api.mercadopago.com/preapproval/..."}
//
// Returns false when no ID can be extracted; such notifications are
// acknowledged and skipped, never retried.
func notificationID(payload []byte) (string, bool) {
	var n struct {
		Data struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
		ID       json.RawMessage `json:"id"`
		Resource string          `json:"resource"`
	}
	if err := json.Unmarshal(payload, &n); err != nil {
		return "", false
	}

	if id := rawID(n.Data.ID); id != "" {
		return id, true
	}
	if id := rawID(n.ID); id != "" {
		return id, true
	}
	if n.Resource != "" {
		if id := strings.TrimSpace(lastPathSegment(n.Resource)); id != "" {
			return id, true
		}
	}
	return "", false
}

// rawID decodes an ID field that may be a JSON string or a bare number.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func lastPathSegment(resource string) string {
	trimmed := strings.TrimRight(resource, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}
