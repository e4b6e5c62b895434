package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// CatalogList refreshes the catalog from the remote API and returns the
// reconciled product list.
func CatalogList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		cat, err := svc.Refresh(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCatalogResponse(cat))
	}
}

type catalogResponse struct {
	Categories []categorySummary        `json:"categories"`
	Products   []catalogProductResponse `json:"products"`
}

type categorySummary struct {
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	ProductCount int    `json:"productCount"`
}

type catalogProductResponse struct {
	ProductID      int64                   `json:"productId"`
	ProductName    string                  `json:"productName"`
	Description    string                  `json:"description"`
	Price          decimal.Decimal         `json:"price"`
	Stock          int                     `json:"stock"`
	StockLevel     enums.StockLevel        `json:"stockLevel"`
	CategoryID     int64                   `json:"categoryId"`
	CategoryName   string                  `json:"categoryName,omitempty"`
	ProductDetails []catalog.ProductDetail `json:"productDetails"`
}

func newCatalogResponse(cat *catalog.Catalog) catalogResponse {
	resp := catalogResponse{
		Categories: []categorySummary{},
		Products:   []catalogProductResponse{},
	}
	if cat == nil {
		return resp
	}
	for _, category := range cat.Categories() {
		if category == nil {
			continue
		}
		resp.Categories = append(resp.Categories, categorySummary{
			CategoryID:   category.CategoryID,
			CategoryName: category.CategoryName,
			ProductCount: len(category.Products),
		})
	}
	for _, product := range cat.Products() {
		item := catalogProductResponse{
			ProductID:      product.ProductID,
			ProductName:    product.ProductName,
			Description:    product.Description,
			Price:          product.Price,
			Stock:          product.Stock,
			StockLevel:     product.StockLevel(),
			CategoryID:     product.CategoryRefID(),
			ProductDetails: product.ProductDetails,
		}
		if category, ok := cat.CategoryOf(product.ProductID); ok {
			item.CategoryName = category.CategoryName
		}
		if item.ProductDetails == nil {
			item.ProductDetails = []catalog.ProductDetail{}
		}
		resp.Products = append(resp.Products, item)
	}
	return resp
}
