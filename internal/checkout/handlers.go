package checkout

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiosko-dev/backend-consign/internal/cart"
	"github.com/kiosko-dev/backend-consign/internal/common"
	"github.com/kiosko-dev/backend-consign/internal/pricing"
	"github.com/kiosko-dev/backend-consign/internal/promo"
)

// Handler exposes the authorization endpoint.
type Handler struct {
	Svc *Service
}

type authorizeRequest struct {
	CartID         string `json:"cartId" validate:"required,uuid4"`
	DeliveryMethod string `json:"deliveryMethod" validate:"required,oneof=pickup delivery"`
	PromoCode      string `json:"promoCode"`
	DisplayedTotal string `json:"displayedTotal" validate:"required"`
}

// Authorize re-settles the cart and places the order when the totals still
// match what the buyer saw.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	cartID, err := uuid.Parse(req.CartID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	displayed, err := decimal.NewFromString(req.DisplayedTotal)
	if err != nil || displayed.IsNegative() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid displayed total", nil)
		return
	}

	order, err := h.Svc.Authorize(r.Context(), AuthorizeInput{
		CartID:         cartID,
		DeliveryMethod: pricing.DeliveryMethod(req.DeliveryMethod),
		PromoCode:      req.PromoCode,
		DisplayedTotal: displayed,
	})
	if err != nil {
		writeAuthorizeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, order)
}

func writeAuthorizeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTotalsMismatch):
		common.JSONError(w, http.StatusConflict, "CART_CHANGED", "cart totals changed, please refresh your cart", nil)
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, cart.ErrListingUnavailable):
		common.JSONError(w, http.StatusConflict, "LISTING_UNAVAILABLE", "an item in your cart is no longer available", nil)
	case promo.Reason(err) != "":
		common.JSONError(w, http.StatusUnprocessableEntity, "PROMO_REJECTED", err.Error(), map[string]string{"reason": promo.Reason(err)})
	default:
		common.WriteAppError(w, err)
	}
}
