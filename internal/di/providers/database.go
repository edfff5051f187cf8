package providers

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/seedcatalog/seedcatalog-server/internal/config"
	"github.com/seedcatalog/seedcatalog-server/internal/logger"
	"github.com/seedcatalog/seedcatalog-server/internal/store"
	"github.com/seedcatalog/seedcatalog-server/internal/store/sqlite"
)

// StoreHandle wraps the SQLite catalog with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite catalog database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Component("sqlite"))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// LookupCacheHandle is the configured lookup cache backend.
type LookupCacheHandle struct {
	store.CacheBackend
	close func() error
}

// Shutdown implements do.Shutdownable.
func (h *LookupCacheHandle) Shutdown() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// ProvideLookupCache provides the lookup cache. The sqlite backend shares
// the catalog database; badger opens its own store under the data path.
func ProvideLookupCache(i do.Injector) (*LookupCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Cache.Backend {
	case config.CacheBackendBadger:
		path := cfg.Data.BadgerPath()
		db, err := store.New(path, log.Component("badger"))
		if err != nil {
			return nil, err
		}
		log.Info("Lookup cache initialized", "backend", cfg.Cache.Backend, "path", path)
		return &LookupCacheHandle{CacheBackend: db, close: db.Close}, nil

	default:
		storeHandle := do.MustInvoke[*StoreHandle](i)
		log.Info("Lookup cache initialized", "backend", config.CacheBackendSQLite)
		// The catalog handle owns the connection.
		return &LookupCacheHandle{CacheBackend: storeHandle.Store}, nil
	}
}
