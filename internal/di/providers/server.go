package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/seedcatalog/seedcatalog-server/internal/api"
	"github.com/seedcatalog/seedcatalog-server/internal/config"
	"github.com/seedcatalog/seedcatalog-server/internal/logger"
	"github.com/seedcatalog/seedcatalog-server/internal/metrics"
	"github.com/seedcatalog/seedcatalog-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	limiter *api.RateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	if h.limiter != nil {
		h.limiter.Stop()
	}
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*MetricsHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Catalog:  do.MustInvoke[*service.CatalogService](i),
		Autofill: do.MustInvoke[*service.AutofillService](i),
		Search:   do.MustInvoke[*service.SearchService](i),
	}

	opts := api.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MetricsHandler:     metrics.Handler(m.Registry),
	}
	if perMinute := cfg.Server.LookupPerMinute; perMinute > 0 {
		opts.LookupLimiter = api.NewRateLimiter(perMinute, time.Minute, max(1, perMinute/6))
	}

	handler := api.NewServer(storeHandle.Store, services, opts, log.Component("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, limiter: opts.LookupLimiter}, nil
}
