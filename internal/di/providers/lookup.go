package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"

	"github.com/seedcatalog/seedcatalog-server/internal/config"
	"github.com/seedcatalog/seedcatalog-server/internal/gbif"
	"github.com/seedcatalog/seedcatalog-server/internal/logger"
	"github.com/seedcatalog/seedcatalog-server/internal/metrics"
)

// MetricsHandle holds the Prometheus registry and the autofill collectors.
type MetricsHandle struct {
	Registry *prometheus.Registry
	Autofill *metrics.AutofillMetrics
}

// ProvideMetrics provides the metrics registry.
func ProvideMetrics(i do.Injector) (*MetricsHandle, error) {
	registry := metrics.NewRegistry()
	autofill, err := metrics.NewAutofillMetrics(registry)
	if err != nil {
		return nil, err
	}
	return &MetricsHandle{Registry: registry, Autofill: autofill}, nil
}

// GBIFClientHandle wraps the GBIF client with shutdown capability.
type GBIFClientHandle struct {
	*gbif.Client
}

// Shutdown implements do.Shutdownable.
func (h *GBIFClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideGBIFClient provides the rate-limited GBIF Species API client.
func ProvideGBIFClient(i do.Injector) (*GBIFClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*MetricsHandle](i)

	client := gbif.New(gbif.Config{
		BaseURL:        cfg.GBIF.BaseURL,
		ConnectTimeout: cfg.GBIF.ConnectTimeout,
		ReadTimeout:    cfg.GBIF.ReadTimeout,
		RPS:            cfg.GBIF.RateLimitRPS,
		Burst:          cfg.GBIF.RateLimitBurst,
		UserAgent:      cfg.GBIF.UserAgent,
	}, log.Component("gbif"))
	client.SetObserver(m.Autofill)

	log.Info("GBIF client initialized",
		"base_url", cfg.GBIF.BaseURL,
		"rps", cfg.GBIF.RateLimitRPS,
	)

	return &GBIFClientHandle{Client: client}, nil
}
