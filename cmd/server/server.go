package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avetra/supplierhub/internal/app"
	"github.com/avetra/supplierhub/internal/config"
	"github.com/avetra/supplierhub/internal/handlers"
	"github.com/go-chi/chi/v5"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Флаги перекрывают значения из файла.
	addr, dsn := config.ParseFlags()
	addr.Apply(&cfg.Server)
	if dsn != "" {
		cfg.Database.DSN = dsn
	}

	a, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Init(); err != nil {
		return err
	}

	// Инициализация chi роутера и middlewares
	r := chi.NewRouter()
	config.SetupMiddlewares(r)

	// Инициализация обработчиков
	h := handlers.NewHandler(a.KPI, a.Catalog, a.Directory)
	r.Get("/healthz", h.HealthHandler)
	r.Get("/api/kpi/{op}", h.KPIHandler)
	r.Get("/api/catalog", h.CatalogHandler)
	r.Get("/api/providers", h.ProvidersHandler)

	if a.Telemetry != nil && a.Telemetry.MetricsHandler != nil {
		r.Handle(cfg.Telemetry.MetricsPath, a.Telemetry.MetricsHandler)
	}

	// Конфигурация и запуск сервера
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
