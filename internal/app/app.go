// Package app wires the protocol engine together: signer, hooks, token
// cache, resolver and registration, built once at process start from
// resolved configuration.
package app

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"shopbridge/internal/client"
	"shopbridge/internal/hooks"
	"shopbridge/internal/metrics"
	"shopbridge/internal/registration"
	"shopbridge/internal/resolver"
	"shopbridge/internal/signer"
	"shopbridge/pkg/logger"
	"shopbridge/pkg/shop"
)

// Config is the static app identity from the platform's app store listing.
type Config struct {
	AppName              string
	AppSecret            string
	AuthorizeCallbackURL string
}

// App is the composition root. It holds no logic of its own beyond wiring.
type App struct {
	Cfg          Config
	Signer       *signer.Signer
	Hooks        *hooks.Hooks
	TokenCache   client.TokenCache
	Resolver     *resolver.Resolver
	Registration *registration.Registration
	Repo         shop.Repository

	log         *zap.SugaredLogger
	httpTimeout time.Duration
	registerer  prometheus.Registerer
}

type Option func(*App)

// WithTokenCache replaces the default in-process token cache, e.g. with the
// redis-backed one.
func WithTokenCache(cache client.TokenCache) Option {
	return func(a *App) { a.TokenCache = cache }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(a *App) { a.log = log }
}

// WithHTTPClientTimeout sets the default timeout for outbound admin-API
// calls made through resolved contexts.
func WithHTTPClientTimeout(d time.Duration) Option {
	return func(a *App) { a.httpTimeout = d }
}

// WithRegisterer sets the prometheus registerer; tests pass a fresh
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *App) { a.registerer = reg }
}

func New(cfg Config, repo shop.Repository, opts ...Option) *App {
	a := &App{
		Cfg:        cfg,
		Repo:       repo,
		Signer:     signer.New(),
		Hooks:      hooks.New(),
		TokenCache: client.NewMemoryTokenCache(),
		log:        logger.Nop(),
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.Resolver = resolver.New(repo, a.Signer, a.TokenCache, a.httpTimeout)
	a.Registration = registration.New(
		registration.Config(cfg),
		a.Signer, repo, a.Resolver, a.Hooks, a.log, metrics.New(a.registerer),
	)
	return a
}

// Mount attaches the handshake and lifecycle endpoints to a router.
func (a *App) Mount(r chi.Router) {
	r.Get("/register", a.Registration.Authorize)
	r.Post("/register/confirm", a.Registration.AuthorizeCallback)
	r.Post("/install", a.Registration.Install)
	r.Post("/activate", a.Registration.Activate)
	r.Post("/deactivate", a.Registration.Deactivate)
	r.Post("/update", a.Registration.Update)
	r.Post("/delete", a.Registration.Uninstall)
}
