package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Plan identifies a subscription tier.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanBasic Plan = "basic"
	PlanPro   Plan = "pro"
)

// Paid reports whether the plan is a paid subscription tier.
func (p Plan) Paid() bool {
	return p == PlanBasic || p == PlanPro
}

// String implements fmt.Stringer.
func (p Plan) String() string { return string(p) }

// Status is the normalized subscription status as stored in plan records.
type Status string

const (
	// StatusNone is the derived status for users without any plan record.
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// NormalizeStatus maps a raw processor status onto the internal Status set.
// "authorized" is the processor's word for an active recurring charge, so it
// collapses into StatusActive. Recognized states pass through as themselves;
// anything else is kept verbatim so the stored record never loses
// information the processor sent.
func NormalizeStatus(raw string) Status {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "authorized", "active":
		return StatusActive
	case "pending", "paused", "cancelled":
		return Status(s)
	case "":
		return StatusNone
	default:
		return Status(s)
	}
}

// Record is a user's stored subscription state. At most one record exists
// per user; a missing record means the user is on the free tier.
type Record struct {
	UserID        uuid.UUID
	Plan          Plan
	Status        Status
	PreapprovalID string
	InitPoint     string
	// RawStatus keeps the processor status verbatim for auditing, alongside
	// the normalized Status.
	RawStatus     string
	NextPaymentAt *time.Time
	UpdatedAt     time.Time
}

// Entitlement is the effective tier a user is granted right now. It is
// derived, never stored.
type Entitlement struct {
	Plan   Plan
	Status Status
}

// Money is an amount in the currency's minor unit (centavos for BRL).
type Money struct {
	Amount   int64
	Currency string
}

// Units returns the amount in major currency units, e.g. 12.90 for 1290
// centavos. Checkout APIs expect decimal amounts.
func (m Money) Units() float64 {
	return float64(m.Amount) / 100
}

// Checkout is the result of initiating a subscription: where to send the
// user to authorize the recurring payment.
type Checkout struct {
	PreapprovalID    string
	InitPoint        string
	SandboxInitPoint string
}

// Reconciliation reports the outcome of processing one webhook
// notification. A non-empty Warning marks a degraded (but still
// acknowledged) run; it never indicates an error to the caller.
type Reconciliation struct {
	Updated bool
	Warning string
}
