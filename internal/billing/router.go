package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cidadao-inteligente/api/internal/auth"
	"github.com/cidadao-inteligente/api/internal/httpx"
)

// RouterConfig wires the billing HTTP surface.
type RouterConfig struct {
	Service  *Service
	Verifier *auth.Verifier
}

// Router builds the billing routes:
//
//	POST /preapproval  authenticated, starts a subscription checkout
//	GET  /status       optional auth, current plan and status
//	POST /webhook      processor notifications, always acknowledged
func Router(cfg RouterConfig) http.Handler {
	if cfg.Service == nil {
		panic("billing: router requires a service")
	}
	if cfg.Verifier == nil {
		panic("billing: router requires a token verifier")
	}

	r := chi.NewRouter()
	r.With(auth.RequireIdentity(cfg.Verifier)).Post("/preapproval", handleCreatePreapproval(cfg.Service))
	r.With(auth.OptionalIdentity(cfg.Verifier)).Get("/status", handleStatus(cfg.Service))
	r.Post("/webhook", handleWebhook(cfg.Service))
	return r
}

type createPreapprovalRequest struct {
	Plan string `json:"plan"`
}

type checkoutResponse struct {
	PreapprovalID    string `json:"preapproval_id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

func handleCreatePreapproval(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, httpx.NewError(http.StatusUnauthorized, "AUTH_REQUIRED", "Você precisa estar logado."))
			return
		}

		var req createPreapprovalRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}

		checkout, err := svc.Subscribe(r.Context(), id, req.Plan)
		if err != nil {
			httpx.WriteError(w, subscribeError(err))
			return
		}
		httpx.JSON(w, http.StatusOK, checkoutResponse{
			PreapprovalID:    checkout.PreapprovalID,
			InitPoint:        checkout.InitPoint,
			SandboxInitPoint: checkout.SandboxInitPoint,
		})
	}
}

// subscribeError maps service errors to client responses. Processor
// failures surface the processor's own message so a declined credential or
// sandbox mismatch is diagnosable from the client.
func subscribeError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownPlan):
		return httpx.NewError(http.StatusBadRequest, "INVALID_PLAN", "Plano inválido.")
	case errors.Is(err, ErrEmailRequired):
		return httpx.NewError(http.StatusUnauthorized, "AUTH_REQUIRED", "Sessão sem e-mail. Entre novamente.")
	case errors.Is(err, ErrPreapprovalCreate):
		return httpx.NewError(http.StatusInternalServerError, "UPSTREAM_ERROR", err.Error())
	default:
		return err
	}
}

type statusResponse struct {
	Logged bool   `json:"logged"`
	Plan   string `json:"plan"`
	Status string `json:"status"`
}

func handleStatus(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			httpx.JSON(w, http.StatusOK, statusResponse{Logged: false, Plan: string(PlanFree), Status: string(StatusNone)})
			return
		}
		ent := svc.Entitlement(r.Context(), id.UserID)
		httpx.JSON(w, http.StatusOK, statusResponse{
			Logged: true,
			Plan:   string(ent.Plan),
			Status: string(ent.Status),
		})
	}
}

type webhookResponse struct {
	OK     bool   `json:"ok"`
	Warned string `json:"warned,omitempty"`
}

func handleWebhook(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			// Even an unreadable body gets acknowledged; the processor
			// retries aggressively and the notification carries no state.
			httpx.JSON(w, http.StatusOK, webhookResponse{OK: true, Warned: WarnUnrecognizedFormat})
			return
		}
		rec := svc.Reconcile(r.Context(), payload)
		httpx.JSON(w, http.StatusOK, webhookResponse{OK: true, Warned: rec.Warning})
	}
}
