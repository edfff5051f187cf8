package api

import (
	"github.com/seedcatalog/seedcatalog-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Catalog  *service.CatalogService
	Autofill *service.AutofillService
	Search   *service.SearchService
}
