package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/internal/checkout"
	"github.com/angelmondragon/packfinderz-storefront/internal/orders"
	"github.com/angelmondragon/packfinderz-storefront/internal/storeapi"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// CheckoutSubmit refreshes the catalog so stock is current, then checks out
// the session's cart.
func CheckoutSubmit(carts CartProvider, products CatalogService, runner CheckoutRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil || products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cat, err := products.Refresh(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := runner.Execute(r.Context(), store, cat)
		if err != nil {
			if result != nil {
				err = withCheckoutDetails(err, result)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if result.State == enums.CheckoutStateCommitted {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, newCheckoutResponse(result))
	}
}

// withCheckoutDetails tags a typed failure with the checkout id and the state
// it ended in.
func withCheckoutDetails(err error, result *checkout.Result) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	tags := map[string]any{
		"checkoutId": result.CheckoutID,
		"state":      result.State.String(),
	}
	if status, ok := storeapi.StatusCode(err); ok {
		tags["remoteStatus"] = status
	}
	switch details := typed.Details().(type) {
	case nil:
		typed.WithDetails(tags)
	case map[string]any:
		for k, v := range tags {
			details[k] = v
		}
	}
	return err
}

type checkoutResponse struct {
	CheckoutID     string                `json:"checkoutId"`
	State          enums.CheckoutState   `json:"state"`
	Order          *orders.Order         `json:"order,omitempty"`
	OrderTotal     *decimal.Decimal      `json:"orderTotal,omitempty"`
	StockUpdates   []stockUpdateResponse `json:"stockUpdates"`
	Cleared        bool                  `json:"cleared"`
	ClearScheduled bool                  `json:"clearScheduled"`
}

type stockUpdateResponse struct {
	ProductID     int64  `json:"productId"`
	PreviousStock int    `json:"previousStock"`
	NewStock      int    `json:"newStock"`
	Error         string `json:"error,omitempty"`
	RolledBack    bool   `json:"rolledBack,omitempty"`
}

func newCheckoutResponse(result *checkout.Result) checkoutResponse {
	resp := checkoutResponse{
		CheckoutID:     result.CheckoutID,
		State:          result.State,
		Order:          result.Order,
		StockUpdates:   make([]stockUpdateResponse, 0, len(result.StockUpdates)),
		Cleared:        result.Cleared,
		ClearScheduled: result.ClearScheduled,
	}
	if result.Order != nil {
		total := result.Order.Total()
		resp.OrderTotal = &total
	}
	for _, update := range result.StockUpdates {
		item := stockUpdateResponse{
			ProductID:     update.ProductID,
			PreviousStock: update.PreviousStock,
			NewStock:      update.NewStock,
			RolledBack:    update.RolledBack,
		}
		if update.Err != nil {
			item.Error = update.Err.Error()
		}
		resp.StockUpdates = append(resp.StockUpdates, item)
	}
	return resp
}
