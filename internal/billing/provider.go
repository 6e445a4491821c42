package billing

import (
	"context"
	"time"
)

// PreapprovalRequest is the processor-agnostic description of a recurring
// subscription to create.
type PreapprovalRequest struct {
	Reason            string
	PayerEmail        string
	BackURL           string
	ExternalReference string
	Amount            Money
	FrequencyMonths   int
}

// Preapproval is the processor's view of a recurring subscription.
type Preapproval struct {
	ID                string
	Status            string
	ExternalReference string
	InitPoint         string
	SandboxInitPoint  string
	NextPaymentAt     *time.Time
}

// PreapprovalProvider abstracts the payment processor's preapproval API.
// The service layer never talks to the processor directly, which keeps
// webhook reconciliation and checkout testable without network access.
type PreapprovalProvider interface {
	// CreatePreapproval registers a pending recurring subscription and
	// returns the checkout link the user must visit to authorize it.
	CreatePreapproval(ctx context.Context, req PreapprovalRequest) (*Preapproval, error)

	// GetPreapproval fetches the current state of a preapproval by ID.
	// Webhook handling treats this as the source of truth and ignores any
	// status carried in the notification body itself.
	GetPreapproval(ctx context.Context, id string) (*Preapproval, error)
}
