// cmd/app-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopbridge/internal/app"
	"shopbridge/internal/client"
	"shopbridge/pkg/config"
	"shopbridge/pkg/db"
	"shopbridge/pkg/logger"
	"shopbridge/pkg/middleware"
	"shopbridge/pkg/shop"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	var repo shop.Repository
	if pool := db.MustConnect(cfg, log); pool != nil {
		if err := shop.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
		repo = shop.NewPostgresRepository(pool, log)
	} else {
		repo = shop.NewMemoryRepository()
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithHTTPClientTimeout(cfg.HTTPTimeout),
	}
	if redisCli := db.MustRedis(cfg, log); redisCli != nil {
		opts = append(opts, app.WithTokenCache(client.NewRedisTokenCache(redisCli, log)))
	}

	server := app.New(app.Config{
		AppName:              cfg.AppName,
		AppSecret:            cfg.AppSecret,
		AuthorizeCallbackURL: cfg.AuthorizeCallbackURL,
	}, repo, opts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing(cfg))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	r.Route("/app", server.Mount)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("app-server listening", "addr", cfg.HTTPAddr, "app", cfg.AppName)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("app-server stopped")
}
