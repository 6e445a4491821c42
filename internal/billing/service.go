package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cidadao-inteligente/api/internal/auth"
)

// Warning markers attached to degraded webhook reconciliations. They are
// returned in the acknowledgement body so the processor dashboard shows
// which step was skipped.
const (
	WarnFetchFailed        = "preapproval_fetch_failed"
	WarnMissingUser        = "missing_user_in_external_reference"
	WarnUpsertFailed       = "plan_upsert_failed"
	WarnUnrecognizedFormat = "unrecognized_notification"
)

// Service implements subscription initiation, webhook reconciliation and
// entitlement resolution on top of a PreapprovalProvider and a PlanStore.
type Service struct {
	catalog  Catalog
	provider PreapprovalProvider
	store    PlanStore
	appURL   string
	log      *slog.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCatalog overrides the default plan catalog.
func WithCatalog(c Catalog) ServiceOption {
	return func(s *Service) { s.catalog = c }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a billing service. The provider and store are
// required; appURL is the public base URL used to build checkout return
// links.
func NewService(provider PreapprovalProvider, store PlanStore, appURL string, log *slog.Logger, opts ...ServiceOption) *Service {
	if provider == nil {
		panic("billing: provider is required")
	}
	if store == nil {
		panic("billing: store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		catalog:  DefaultCatalog(),
		provider: provider,
		store:    store,
		appURL:   strings.TrimRight(appURL, "/"),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe creates a pending preapproval for the identity and plan, stores
// a pending plan record best-effort, and returns the checkout link.
//
// The record write is best-effort on purpose: the webhook reconciler will
// recreate it from the processor's state, so a storage failure here must
// not lose the checkout link the user is waiting for.
func (s *Service) Subscribe(ctx context.Context, id auth.Identity, planKey string) (*Checkout, error) {
	key := Plan(strings.ToLower(strings.TrimSpace(planKey)))
	spec, ok := s.catalog[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planKey)
	}
	if id.Email == "" {
		return nil, ErrEmailRequired
	}

	pre, err := s.provider.CreatePreapproval(ctx, PreapprovalRequest{
		Reason:            spec.Title + " • Cidadão Inteligente",
		PayerEmail:        id.Email,
		BackURL:           s.appURL + "/planos/sucesso?plan=" + url.QueryEscape(string(key)),
		ExternalReference: id.UserID.String() + ":" + string(key),
		Amount:            spec.Price,
		FrequencyMonths:   1,
	})
	if err != nil {
		return nil, err
	}

	rec := &Record{
		UserID:        id.UserID,
		Plan:          key,
		Status:        StatusPending,
		PreapprovalID: pre.ID,
		InitPoint:     pre.InitPoint,
		RawStatus:     pre.Status,
		NextPaymentAt: pre.NextPaymentAt,
		UpdatedAt:     s.now(),
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.log.WarnContext(ctx, "failed to store pending plan record",
			slog.String("user_id", id.UserID.String()),
			slog.String("plan", string(key)),
			slog.Any("error", err))
	}

	return &Checkout{
		PreapprovalID:    pre.ID,
		InitPoint:        pre.InitPoint,
		SandboxInitPoint: pre.SandboxInitPoint,
	}, nil
}

// Reconcile processes one webhook notification body. It never returns an
// error: every outcome must be acknowledged to the processor so the
// notification is not retried forever. Degraded outcomes carry a Warning
// marker instead.
func (s *Service) Reconcile(ctx context.Context, payload []byte) Reconciliation {
	id, ok := notificationID(payload)
	if !ok {
		s.log.InfoContext(ctx, "webhook notification without preapproval id, skipping")
		return Reconciliation{Warning: WarnUnrecognizedFormat}
	}

	// The notification body is only a pointer. Re-fetch the preapproval so
	// state changes with identical notification bodies still reconcile.
	pre, err := s.provider.GetPreapproval(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to fetch preapproval for webhook",
			slog.String("preapproval_id", id),
			slog.Any("error", err))
		return Reconciliation{Warning: WarnFetchFailed}
	}

	userID, planKey, err := parseExternalReference(pre.ExternalReference)
	if err != nil {
		s.log.WarnContext(ctx, "webhook preapproval without usable external reference",
			slog.String("preapproval_id", id),
			slog.String("external_reference", pre.ExternalReference))
		return Reconciliation{Warning: WarnMissingUser}
	}

	rec := &Record{
		UserID:        userID,
		Plan:          planKey,
		Status:        NormalizeStatus(pre.Status),
		PreapprovalID: pre.ID,
		InitPoint:     pre.InitPoint,
		RawStatus:     pre.Status,
		NextPaymentAt: pre.NextPaymentAt,
		UpdatedAt:     s.now(),
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.log.ErrorContext(ctx, "failed to upsert plan record from webhook",
			slog.String("user_id", userID.String()),
			slog.String("preapproval_id", id),
			slog.Any("error", err))
		return Reconciliation{Warning: WarnUpsertFailed}
	}

	s.log.InfoContext(ctx, "plan record reconciled from webhook",
		slog.String("user_id", userID.String()),
		slog.String("plan", string(rec.Plan)),
		slog.String("status", string(rec.Status)))
	return Reconciliation{Updated: true}
}

// PlanRecord returns the user's stored plan record, or nil when the user
// has none or the store is unavailable. Read paths never fail on billing
// state; they degrade to the free tier.
func (s *Service) PlanRecord(ctx context.Context, userID uuid.UUID) *Record {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.log.WarnContext(ctx, "failed to load plan record, degrading to free tier",
				slog.String("user_id", userID.String()),
				slog.Any("error", err))
		}
		return nil
	}
	return rec
}

// Entitlement resolves the user's effective tier. It never fails: missing
// records and store errors both resolve to the free tier.
func (s *Service) Entitlement(ctx context.Context, userID uuid.UUID) Entitlement {
	return ResolveEntitlement(s.PlanRecord(ctx, userID))
}

// parseExternalReference splits the "userID:planKey" reference attached to
// every preapproval. The user ID must be a valid UUID; a reference written
// by this service always is, so anything else means the preapproval was
// not created here. A missing plan segment falls back to basic, matching
// the cheapest tier rather than the most generous.
func parseExternalReference(ref string) (uuid.UUID, Plan, error) {
	userPart, planPart, _ := strings.Cut(ref, ":")
	userID, err := uuid.Parse(strings.TrimSpace(userPart))
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("billing: external reference has no user id: %w", err)
	}
	plan := Plan(strings.ToLower(strings.TrimSpace(planPart)))
	if plan == "" {
		plan = PlanBasic
	}
	return userID, plan, nil
}
