package http

import (
	"net/http"
	"time"

	"github.com/campusboard-api/internal/application/job"
	"github.com/campusboard-api/internal/application/messaging"
	"github.com/campusboard-api/internal/application/notification"
	"github.com/campusboard-api/internal/application/session"
	"github.com/campusboard-api/internal/application/user"
	"github.com/campusboard-api/internal/application/verification"
	"github.com/campusboard-api/internal/config"
	"github.com/campusboard-api/internal/domain"
	"github.com/campusboard-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/campusboard-api/internal/infrastructure/jwt"
	s3infra "github.com/campusboard-api/internal/infrastructure/s3"
	"github.com/campusboard-api/internal/infrastructure/smtp"
	"github.com/campusboard-api/internal/infrastructure/sns"
	"github.com/campusboard-api/internal/transport/http/handler"
	appmiddleware "github.com/campusboard-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	JobRepo          *dynamo.JobRepo
	ApplicationRepo  *dynamo.ApplicationRepo
	ChatRequestRepo  *dynamo.ChatRequestRepo
	ConversationRepo *dynamo.ConversationRepo
	MessageRepo      *dynamo.MessageRepo
	NotificationRepo *dynamo.NotificationRepo
	DocumentRepo     *dynamo.DocumentRepo
	EmailCodeRepo    *dynamo.CodeRepo
	PhoneCodeRepo    *dynamo.CodeRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}

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

	authMw := appmiddleware.Auth(deps.JWTProvider)
	authOptMw := appmiddleware.AuthOptional(deps.JWTProvider)

	// 5 requests/second, burst of 10, applied to sensitive public endpoints
	// and to code issuance.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	notifSvc := notification.NewService(deps.NotificationRepo)
	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo:     deps.SessionRepo,
		UserRepo:        deps.UserRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: time.Duration(cfg.RefreshTokenExpiryDays) * 24 * time.Hour,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:     deps.UserRepo,
		SessionRepo:  deps.SessionRepo,
		DocumentRepo: deps.DocumentRepo,
		Objects:      deps.S3Store,
	})
	verificationSvc := verification.NewService(verification.ServiceDeps{
		UserRepo:    deps.UserRepo,
		EmailCodes:  deps.EmailCodeRepo,
		PhoneCodes:  deps.PhoneCodeRepo,
		EmailSender: verification.NewEmailGateway(deps.Mailer),
		PhoneSender: verification.NewSMSGateway(deps.SMSSender),
		Tokens:      deps.JWTProvider,
		Notifier:    notifSvc,
		Limiter:     verification.NewIssueLimiter(cfg.ResendInterval, cfg.MaxCodesPerHour),
	})
	jobSvc := job.NewService(job.ServiceDeps{
		JobRepo:         deps.JobRepo,
		ApplicationRepo: deps.ApplicationRepo,
		UserRepo:        deps.UserRepo,
		DocumentRepo:    deps.DocumentRepo,
		Objects:         deps.S3Store,
		Notifier:        notifSvc,
	})
	messagingSvc := messaging.NewService(messaging.ServiceDeps{
		RequestRepo:      deps.ChatRequestRepo,
		ConversationRepo: deps.ConversationRepo,
		MessageRepo:      deps.MessageRepo,
		ApplicationRepo:  deps.ApplicationRepo,
		JobRepo:          deps.JobRepo,
		Notifier:         notifSvc,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	verificationH := handler.NewVerificationHandler(verificationSvc)
	jobH := handler.NewJobHandler(jobSvc)
	messagingH := handler.NewMessagingHandler(messagingSvc)
	notifH := handler.NewNotificationHandler(notifSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.Get("/jobs/stats", jobH.Stats)

		// The board is public; authenticated viewers get their role-aware
		// view of unapproved or disabled listings.
		r.With(authOptMw).Get("/jobs", jobH.List)
		r.With(authOptMw).Get("/jobs/{id}", jobH.Get)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/me", userH.GetMe)
			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Put("/users/me/password", userH.ChangePassword)
			r.Post("/users/me/photo", userH.SetProfilePhoto)
			r.Get("/users/{id}/documents", userH.ListDocuments)

			r.With(sensitiveRL.Limit).Post("/verification/{channel}/start", verificationH.Start)
			r.With(sensitiveRL.Limit).Post("/verification/resend", verificationH.Resend)
			r.Post("/verification/submit", verificationH.Submit)

			r.Get("/jobs/mine", jobH.ListMine)
			r.Post("/jobs", jobH.Create)
			r.Put("/jobs/{id}", jobH.Update)
			r.Delete("/jobs/{id}", jobH.Delete)

			r.Post("/jobs/{id}/applications", jobH.Apply)
			r.Get("/applications/mine", jobH.ListApplications)
			r.Put("/applications/{id}/status", jobH.Decide)

			r.Post("/applications/{id}/chat-requests", messagingH.RequestChat)
			r.Get("/chat-requests", messagingH.ListRequests)
			r.Post("/chat-requests/{id}/{action}", messagingH.Respond)
			r.Get("/conversations", messagingH.ListConversations)
			r.Get("/conversations/{id}/messages", messagingH.ListMessages)
			r.Post("/conversations/{id}/messages", messagingH.SendMessage)

			r.Get("/notifications", notifH.List)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkAsRead)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)
				r.Put("/users/{id}/verification-status", verificationH.Review)

				r.Post("/jobs/{id}/approve", jobH.Approve)

				r.Get("/admin/conversations", messagingH.ListAllConversations)
				r.Post("/admin/conversations/{id}/deactivate", messagingH.DeactivateConversation)
				r.Post("/admin/messages/{id}/flag", messagingH.FlagMessage)
			})
		})
	})

	return r
}
