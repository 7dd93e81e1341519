package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/notifylight/server/internal/application/inbox"
	"github.com/notifylight/server/internal/application/notify"
	"github.com/notifylight/server/internal/application/registry"
	"github.com/notifylight/server/internal/config"
	"github.com/notifylight/server/internal/transport/http/handler"
	appmiddleware "github.com/notifylight/server/internal/transport/http/middleware"
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
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	keyMw := appmiddleware.APIKey(cfg.APIKey)

	// 5 requests/second, burst of 10 — applied to the client-facing write endpoints.
	writeRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	registrySvc := registry.NewService(deps.DeviceRepo)
	inboxSvc := inbox.NewService(deps.MessageRepo)
	notifySvc := notify.NewService(registrySvc, inboxSvc, deps.Engine, deps.DeliveryLogRepo)

	deviceH := handler.NewDeviceHandler(registrySvc)
	notifyH := handler.NewNotifyHandler(notifySvc)
	inboxH := handler.NewInboxHandler(inboxSvc)
	healthH := handler.NewHealthHandler(deps.Engine, inboxSvc, registrySvc, deps.DeliveryLogRepo)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no key) ───────────────────────────────────────────
		r.Get("/health", healthH.Health)

		// ── Keyed routes ─────────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(keyMw)

			r.With(writeRL.Limit).Post("/register-device", deviceH.Register)
			r.With(writeRL.Limit).Post("/notify", notifyH.Notify)
			r.Get("/notifications/{id}", notifyH.Status)

			// chi requires one param name per tree position, so {id} is the
			// user id on the GET routes and the message id on the read route.
			r.Get("/messages/{id}", inboxH.List)
			r.Get("/messages/{id}/next", inboxH.Next)
			r.Post("/messages/{id}/read", inboxH.MarkRead)

			r.Get("/stats", healthH.Stats)
		})
	})

	return r
}
