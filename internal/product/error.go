package product

import "errors"

var (
	ErrCatalogUnavailable = errors.New("product catalog is unavailable")

	ReasonCatalogUnavailable = "catalog_unavailable"
)
