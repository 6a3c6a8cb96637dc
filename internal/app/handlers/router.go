package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/achufistov/shortypanel/internal/app/controllers"
	"github.com/achufistov/shortypanel/internal/app/metrics"
	"github.com/achufistov/shortypanel/internal/app/middleware"
	"github.com/achufistov/shortypanel/internal/app/service"
	"github.com/achufistov/shortypanel/internal/app/views"
)

// RouterConfig holds the collaborators of NewRouter.
type RouterConfig struct {
	Service       *service.Service
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
	TrustedSubnet string
}

// NewRouter builds the chi router with every page, admin and operational route.
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNop()
	}

	view := views.NewView()
	h := NewHandler(cfg.Service, view, logger)
	urls := controllers.NewURLController(cfg.Service, view, logger)
	admin := controllers.NewAdminController(cfg.Service, view, logger)
	authc := controllers.NewAuthController(cfg.Service, view, logger)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.MetricsMiddleware(m))
	r.Use(chimw.Compress(5, "application/json", "text/plain"))
	r.Use(middleware.AuthMiddleware(cfg.Service.Tokens()))

	r.NotFound(h.HandleNotFound)

	r.Get("/", urls.HandleIndex)
	r.Get("/ping", h.HandlePing)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	trusted := middleware.TrustedSubnetMiddleware(cfg.TrustedSubnet)
	r.With(trusted).Get("/api/internal/stats", h.HandleStats)
	r.Mount("/debug", trusted(chimw.Profiler()))

	r.Route("/url", func(r chi.Router) {
		r.Get("/", urls.HandleShortenForm)
		r.Post("/", urls.HandleShorten)
		r.Get("/created/{short}", urls.HandleCreated)
		r.Get("/{short}", urls.HandleRedirect)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(view))
			r.Get("/delete/{id}", urls.HandleDeleteForm)
			r.Post("/delete/{id}", urls.HandleDelete)
		})
	})

	r.Route("/account", func(r chi.Router) {
		r.Use(middleware.RequireAuth(view))
		r.Get("/", urls.HandleAccount)
		r.Get("/{page}", urls.HandleAccount)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(view))
		r.Get("/", admin.HandlePanel)
		r.Get("/urls/", admin.HandleURLs)
		r.Get("/urls/{page}", admin.HandleURLs)
		r.Get("/users/", admin.HandleUsers)
		r.Get("/users/{page}", admin.HandleUsers)
		r.Post("/drop_user/{id}", admin.HandleDropUser)
		r.Get("/userpwd/{id}", admin.HandlePasswordForm)
		r.Post("/userpwd/{id}", admin.HandleChangePassword)
		r.Get("/delete/{id}", urls.HandleAdminDeleteForm)
		r.Post("/delete/{id}", urls.HandleAdminDelete)
		r.Get("/popularity/{id}", admin.HandlePopularity)
		r.Get("/popularity/{id}/{page}", admin.HandlePopularity)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", authc.HandleLoginForm)
		r.Post("/login", authc.HandleLogin)
		r.Get("/logout", authc.HandleLogout)
		r.Get("/register", authc.HandleRegisterForm)
		r.Post("/register", authc.HandleRegister)
	})

	return r
}
