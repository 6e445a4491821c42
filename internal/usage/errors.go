package usage

import (
	"errors"
	"fmt"

	"github.com/cidadao-inteligente/api/internal/billing"
)

var (
	// ErrPlanNotActive is wrapped by PlanNotActiveError for errors.Is
	// matching.
	ErrPlanNotActive = errors.New("usage: plan is not active")

	// ErrUploadNotAllowed is wrapped by QuotaError when the plan has no
	// upload permission at all.
	ErrUploadNotAllowed = errors.New("usage: uploads require a paid plan")

	// ErrDailyLimitReached is wrapped by QuotaError when the daily message
	// limit is exhausted.
	ErrDailyLimitReached = errors.New("usage: daily message limit reached")

	// ErrUploadLimitReached is wrapped by QuotaError when the daily upload
	// limit is exhausted.
	ErrUploadLimitReached = errors.New("usage: daily upload limit reached")
)

// PlanNotActiveError is returned when the user's stored plan is paid but
// its subscription is not active. Plan and Status carry the stored state so
// handlers can tell the user whether payment is pending or the plan was
// cancelled.
type PlanNotActiveError struct {
	Plan   billing.Plan
	Status billing.Status
}

func (e *PlanNotActiveError) Error() string {
	return fmt.Sprintf("usage: plan %s is not active (status %s)", e.Plan, e.Status)
}

func (e *PlanNotActiveError) Unwrap() error { return ErrPlanNotActive }

// QuotaError is returned when a quota check fails. It wraps one of the
// quota sentinels and carries the resolved plan and limit for the client
// response.
type QuotaError struct {
	Plan   billing.Plan
	Status billing.Status
	Limit  int64

	sentinel error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s (plan %s, limit %d)", e.sentinel.Error(), e.Plan, e.Limit)
}

func (e *QuotaError) Unwrap() error { return e.sentinel }
