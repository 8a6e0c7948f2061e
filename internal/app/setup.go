// Package app contains the application setup for the catalog service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/cmdshifts/backend-products/internal/config"
	"github.com/cmdshifts/backend-products/internal/service"
	"github.com/cmdshifts/backend-products/internal/store"
	"github.com/cmdshifts/backend-products/internal/transport/rest"
	"github.com/cmdshifts/backend-products/pkg/metrics"
	"github.com/cmdshifts/backend-products/pkg/server"
	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	CatalogService service.CatalogService
	Logger         *slog.Logger
}

func SetupDependencies(logger *slog.Logger) *Dependencies {
	cService := service.NewService(store.NewMemStore())

	return &Dependencies{
		CatalogService: cService,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the catalog service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the catalog service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	catalogHandler := rest.NewHandler(deps.CatalogService, deps.Logger)
	catalogHandler.RegisterRoutes(mux)
	mux.Get("/metrics", metrics.Handler())
}

// SetupHttpServer creates and configures an HTTP server for the catalog service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
