package chat

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cidadao-inteligente/api/internal/auth"
	"github.com/cidadao-inteligente/api/internal/billing"
	"github.com/cidadao-inteligente/api/internal/httpx"
	"github.com/cidadao-inteligente/api/internal/ratelimit"
	"github.com/cidadao-inteligente/api/internal/usage"
)

// RouterConfig wires the chat HTTP surface.
type RouterConfig struct {
	Service  *Service
	Verifier *auth.Verifier
	// Limiter throttles bursts per user; nil disables throttling.
	Limiter *ratelimit.Limiter
}

// Router builds the chat routes:
//
//	POST /  authenticated, one assistant exchange
func Router(cfg RouterConfig) http.Handler {
	if cfg.Service == nil {
		panic("chat: router requires a service")
	}
	if cfg.Verifier == nil {
		panic("chat: router requires a token verifier")
	}

	r := chi.NewRouter()
	r.Use(auth.RequireIdentity(cfg.Verifier))
	if cfg.Limiter != nil {
		r.Use(ratelimit.Middleware(cfg.Limiter, ratelimit.PerUser))
	}
	r.Post("/", handleMessage(cfg.Service))
	return r
}

type messageRequest struct {
	Message   string `json:"message"`
	Context   string `json:"context"`
	FileURL   string `json:"fileUrl"`
	FileName  string `json:"fileName"`
	SessionID string `json:"sessionId"`
}

type messageResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"sessionId,omitempty"`
	Plan      string `json:"plan"`
	Status    string `json:"status"`
}

func handleMessage(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, httpx.NewError(http.StatusUnauthorized, "AUTH_REQUIRED", "Você precisa estar logado para usar o chat."))
			return
		}

		var req messageRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}

		reply, err := svc.HandleMessage(r.Context(), id, Request{
			Message:   req.Message,
			Context:   req.Context,
			FileURL:   req.FileURL,
			FileName:  req.FileName,
			SessionID: req.SessionID,
		})
		if err != nil {
			httpx.WriteError(w, messageError(err))
			return
		}
		httpx.JSON(w, http.StatusOK, messageResponse{
			Answer:    reply.Answer,
			SessionID: reply.SessionID,
			Plan:      reply.Plan,
			Status:    reply.Status,
		})
	}
}

// messageError maps pipeline errors to client responses. Quota and plan
// errors are 402 with a stable code and the caller's plan and status in
// the body so the client can render the right upgrade prompt.
func messageError(err error) error {
	var notActive *usage.PlanNotActiveError
	if errors.As(err, &notActive) {
		return httpx.NewError(http.StatusPaymentRequired, "PLAN_NOT_ACTIVE", planNotActiveMessage(notActive.Status)).
			WithMeta(map[string]any{
				"plan":   string(billing.PlanFree),
				"status": string(notActive.Status),
			})
	}

	var quotaErr *usage.QuotaError
	if errors.As(err, &quotaErr) {
		meta := map[string]any{
			"plan":   string(quotaErr.Plan),
			"status": string(quotaErr.Status),
		}
		switch {
		case errors.Is(err, usage.ErrUploadNotAllowed):
			return httpx.NewError(http.StatusPaymentRequired, "UPLOAD_REQUIRES_PLAN",
				"📎 **Upload de arquivos é exclusivo para assinantes.**\n\nAbra **Planos** e escolha um plano para liberar uploads.").
				WithMeta(meta)
		case errors.Is(err, usage.ErrDailyLimitReached):
			return httpx.NewError(http.StatusPaymentRequired, "DAILY_LIMIT_REACHED",
				fmt.Sprintf("🚫 **Você atingiu seu limite diário de mensagens (%s).**\n\nPara continuar agora, faça upgrade em **Planos**.", limitLabel(quotaErr.Limit))).
				WithMeta(meta)
		case errors.Is(err, usage.ErrUploadLimitReached):
			return httpx.NewError(http.StatusPaymentRequired, "UPLOAD_LIMIT_REACHED",
				"🚫 **Você atingiu o limite diário de uploads do seu plano.**\n\nPara continuar agora, faça upgrade em **Planos**.").
				WithMeta(meta)
		}
	}

	switch {
	case errors.Is(err, ErrEmptyMessage):
		return httpx.NewError(http.StatusBadRequest, "EMPTY_MESSAGE", "Mensagem vazia.")
	case errors.Is(err, ErrAssistantFailed):
		return httpx.NewError(http.StatusInternalServerError, "UPSTREAM_ERROR", "O assistente está indisponível no momento. Tente novamente.")
	default:
		return err
	}
}

func planNotActiveMessage(status billing.Status) string {
	switch status {
	case billing.StatusPending:
		return "⏳ Seu pagamento está em processamento. Assim que o Mercado Pago confirmar, o acesso premium será liberado automaticamente."
	case billing.StatusCancelled:
		return "⚠️ Sua assinatura foi cancelada. Para voltar a usar os recursos premium, assine novamente em **Planos**."
	default:
		return "Seu plano não está ativo no momento. Verifique sua assinatura em **Planos**."
	}
}

func limitLabel(limit int64) string {
	if limit == billing.Unlimited {
		return "ilimitado"
	}
	return fmt.Sprintf("%d/dia", limit)
}
