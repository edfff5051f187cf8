package providers

import (
	"github.com/samber/do/v2"

	"github.com/seedcatalog/seedcatalog-server/internal/config"
	"github.com/seedcatalog/seedcatalog-server/internal/logger"
	"github.com/seedcatalog/seedcatalog-server/internal/service"
)

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, searchService, storeHandle.Store, log.Logger), nil
}

// ProvideAutofillService provides the species autofill service.
func ProvideAutofillService(i do.Injector) (*service.AutofillService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*LookupCacheHandle](i)
	client := do.MustInvoke[*GBIFClientHandle](i)
	m := do.MustInvoke[*MetricsHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewAutofillService(client.Client, cacheHandle.CacheBackend, storeHandle.Store, cfg.Cache.CandidateTTL, log.Component("autofill"))
	svc.SetObserver(m.Autofill)
	svc.SetPlantNamer(catalog)

	return svc, nil
}
