package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-directory-api/internal/application/auth"
	"github.com/go-directory-api/internal/application/directory"
	"github.com/go-directory-api/internal/application/recovery"
	"github.com/go-directory-api/internal/application/verification"
	"github.com/go-directory-api/internal/config"
	jwtinfra "github.com/go-directory-api/internal/infrastructure/jwt"
	"github.com/go-directory-api/internal/transport/http/handler"
	appmiddleware "github.com/go-directory-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	sessionMw := appmiddleware.Auth(deps.JWTProvider, jwtinfra.PurposeSession)
	recoveryMw := appmiddleware.Auth(deps.JWTProvider, jwtinfra.PurposeRecovery)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	directorySvc := directory.NewService(directory.ServiceDeps{
		UserRepo:    deps.UserRepo,
		AvatarStore: deps.AvatarStore,
		Events:      deps.Events,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:      deps.UserRepo,
		JWTProvider:   deps.JWTProvider,
		SessionExpiry: cfg.JWTExpiry,
	})
	verificationSvc := verification.NewService(verification.ServiceDeps{
		TokenRepo: deps.VerificationRepo,
		UserRepo:  deps.UserRepo,
		Mailer:    deps.Mailer,
		TokenTTL:  cfg.VerificationTTL,
	})
	recoverySvc := recovery.NewService(recovery.ServiceDeps{
		UserRepo:    deps.UserRepo,
		JWTProvider: deps.JWTProvider,
		TokenTTL:    cfg.RecoveryTokenTTL,
	})

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(directorySvc, verificationSvc)
	sessionH := handler.NewSessionHandler(authSvc)
	rankingH := handler.NewRankingHandler(authSvc)
	emailH := handler.NewEmailVerifyHandler(verificationSvc)
	pwH := handler.NewPasswordRecoveryHandler(recoverySvc)
	avatarH := handler.NewAvatarHandler(directorySvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/password-recovery/challenge", pwH.Challenge)
		r.With(sensitiveRL.Limit).Post("/email/validate", emailH.Validate)
		r.Get("/ranking", rankingH.Get)
		r.Get("/users/{id}/avatar", avatarH.Download)

		// ── Recovery-token routes ────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(recoveryMw)
			r.Post("/password-recovery/change-password", pwH.ChangePassword)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(sessionMw)

			r.Get("/users", userH.List)
			r.Post("/users/email", userH.GetByEmail)
			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Delete("/users/{id}", userH.Delete)
			r.Get("/users/{id}/email-verification", emailH.Status)
			r.Put("/users/{id}/avatar", avatarH.Upload)
			r.Post("/email/resend", emailH.Resend)
		})
	})

	return r
}
