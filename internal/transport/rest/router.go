package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/presence-dashboard/internal/config"
	"github.com/heartmarshall/presence-dashboard/internal/transport/middleware"
)

// RouterConfig holds the handlers and middleware mounted by NewRouter.
type RouterConfig struct {
	Logger    *slog.Logger
	CORS      config.CORSConfig
	Health    *HealthHandler
	Storage   *StorageHandler
	Dashboard *DashboardHandler

	// Auth resolves bearer tokens; applied to /api.
	Auth middleware.Middleware
	// UploadLimit throttles upload routes. Optional.
	UploadLimit middleware.Middleware
}

// NewRouter builds the HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(cfg.Logger),
		middleware.Logger(cfg.Logger),
		middleware.CORS(cfg.CORS),
	)

	r.Get("/health", cfg.Health.Health)
	r.Get("/health/live", cfg.Health.Live)
	r.Get("/health/ready", cfg.Health.Ready)

	r.Get("/storage/{bucket}/*", cfg.Storage.Download)

	uploads := middleware.Chain(cfg.UploadLimit)

	h := cfg.Dashboard
	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Auth, middleware.RequireAccount())

		r.Get("/dashboard", h.Overview)
		r.Post("/signout", h.SignOut)

		r.Get("/sections/{section}", h.Section)
		r.Get("/sections/{section}/tabs/{tab}", h.Tab)

		r.Post("/domains/{domain}/edit", h.ToggleEdit)
		r.Post("/domains/{domain}/save", h.Save)

		r.Post("/fields/{domain}/{field}/activate", h.ActivateField)
		r.Post("/fields/{domain}/{field}/commit", h.CommitField)
		r.Post("/fields/{domain}/{field}/key", h.KeyField)
		r.Post("/fields/{domain}/{field}/value", h.SetFieldValue)

		r.Get("/notifications", h.Notifications)
		r.Delete("/notifications/{id}", h.DismissNotification)
		r.Get("/completeness", h.Completeness)

		r.Post("/social-accounts", h.AddSocialAccount)
		r.Patch("/social-accounts/{id}", h.UpdateSocialAccount)
		r.Delete("/social-accounts/{id}", h.RemoveSocialAccount)
		r.Post("/citations", h.AddCitation)
		r.Delete("/citations/{id}", h.RemoveCitation)
		r.Post("/reputation/platforms", h.AddPlatform)

		r.Route("/brand", func(r chi.Router) {
			r.Post("/colors", h.AddColor)
			r.Patch("/colors/{index}", h.UpdateColor)
			r.Delete("/colors/{index}", h.RemoveColor)

			r.With(uploads).Post("/logos/{kind}", h.UploadLogo)
			r.Delete("/logos/{kind}", h.RemoveLogo)
			r.With(uploads).Post("/certificates", h.UploadCertificate)
			r.Delete("/certificates/{id}", h.RemoveCertificate)
		})
	})

	return r
}
