package billing

import "errors"

var (
	// ErrRecordNotFound is returned by PlanStore implementations when a
	// user has no plan record.
	ErrRecordNotFound = errors.New("billing: plan record not found")

	// ErrUnknownPlan is returned when a checkout is requested for a plan
	// the catalog does not sell.
	ErrUnknownPlan = errors.New("billing: unknown plan")

	// ErrEmailRequired is returned when the authenticated identity has no
	// email; the processor requires a payer email to create a preapproval.
	ErrEmailRequired = errors.New("billing: payer email required")

	// ErrPreapprovalCreate wraps failures creating a preapproval with the
	// processor.
	ErrPreapprovalCreate = errors.New("billing: preapproval create failed")

	// ErrPreapprovalFetch wraps failures fetching a preapproval from the
	// processor.
	ErrPreapprovalFetch = errors.New("billing: preapproval fetch failed")
)
