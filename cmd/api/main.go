package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cidadao-inteligente/api/internal/auth"
	"github.com/cidadao-inteligente/api/internal/billing"
	"github.com/cidadao-inteligente/api/internal/chat"
	"github.com/cidadao-inteligente/api/internal/config"
	"github.com/cidadao-inteligente/api/internal/httpserver"
	"github.com/cidadao-inteligente/api/internal/httpx"
	"github.com/cidadao-inteligente/api/internal/logger"
	"github.com/cidadao-inteligente/api/internal/pg"
	"github.com/cidadao-inteligente/api/internal/ratelimit"
	redisconn "github.com/cidadao-inteligente/api/internal/redis"
	"github.com/cidadao-inteligente/api/internal/storage"
	"github.com/cidadao-inteligente/api/internal/usage"
)

type appConfig struct {
	Logger      logger.Config
	HTTP        httpserver.Config
	PG          pg.Config
	Redis       redisconn.Config
	Auth        auth.Config
	Usage       usage.Config
	RateLimit   ratelimit.Config
	MercadoPago billing.MercadoPagoConfig
	Gemini      chat.GeminiConfig
	Parser      chat.ParserConfig

	// AppURL is the public site base used to build checkout return links.
	AppURL string `env:"APP_URL,required"`
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(logger.WithEnvironment(cfg.Logger.Environment, cfg.Logger.ServiceName))
	logger.SetAsDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	redisClient, err := redisconn.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	verifier, err := auth.NewVerifier(cfg.Auth.SessionSecret)
	if err != nil {
		return err
	}

	provider, err := billing.NewMercadoPagoClient(cfg.MercadoPago)
	if err != nil {
		return err
	}

	billingSvc := billing.NewService(provider, storage.NewPlanStore(pool), cfg.AppURL, log)

	gate := usage.NewGate(billingSvc, storage.NewUsageStore(pool), log,
		usage.WithLocation(cfg.Usage.Location(log)))

	assistant, err := chat.NewGeminiAssistant(ctx, cfg.Gemini)
	if err != nil {
		return err
	}
	defer assistant.Close()

	chatOpts := []chat.ServiceOption{
		chat.WithHistory(storage.NewHistoryStore(pool)),
	}
	if cfg.Parser.Enabled() {
		parser, err := chat.NewHTTPDocumentParser(cfg.Parser)
		if err != nil {
			return err
		}
		chatOpts = append(chatOpts, chat.WithDocumentParser(parser))
	}
	chatSvc := chat.NewService(gate, assistant, log, chatOpts...)

	limiter, err := ratelimit.New(ratelimit.NewRedisStore(redisClient, "chat"), cfg.RateLimit)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(pg.Healthcheck(pool), redisconn.Healthcheck(redisClient)))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/billing", billing.Router(billing.RouterConfig{
			Service:  billingSvc,
			Verifier: verifier,
		}))
		r.Mount("/chat", chat.Router(chat.RouterConfig{
			Service:  chatSvc,
			Verifier: verifier,
			Limiter:  limiter,
		}))
	})

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}

func healthHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var failed []error
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				failed = append(failed, err)
			}
		}
		if len(failed) > 0 {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"error":  errors.Join(failed...).Error(),
			})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}
