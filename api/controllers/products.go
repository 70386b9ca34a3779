package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bikeshop-bff/api/responses"
	"github.com/angelmondragon/bikeshop-bff/internal/catalog"
	"github.com/angelmondragon/bikeshop-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/bikeshop-bff/pkg/errors"
	"github.com/angelmondragon/bikeshop-bff/pkg/logger"
)

// ProductsList proxies the catalog. An optional ?category=helmet|bike (or 0|1) narrows it.
func ProductsList(fetcher catalog.Fetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			category    enums.ProductCategory
			hasCategory bool
		)
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			parsed, err := enums.ParseProductCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").
						WithDetails(map[string]any{"category": raw}))
				return
			}
			category, hasCategory = parsed, true
		}

		products, err := fetcher.FetchProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if hasCategory {
			products = catalog.Filter(products, category)
		}
		responses.WriteSuccess(w, products)
	}
}

// ProductsFeatured returns the product with the highest discount.
func ProductsFeatured(fetcher catalog.Fetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := fetcher.FetchProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		featured, ok := catalog.MostAdvantageous(products)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "catalog is empty"))
			return
		}
		responses.WriteSuccess(w, featured)
	}
}
