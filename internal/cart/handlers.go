package cart

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiosko-dev/backend-consign/internal/common"
	"github.com/kiosko-dev/backend-consign/internal/pricing"
	"github.com/kiosko-dev/backend-consign/internal/promo"
	"github.com/kiosko-dev/backend-consign/internal/settlement"
)

// Handler exposes the cart quote endpoint.
type Handler struct {
	Svc *Service
}

type quoteView struct {
	settlement.Quote
	PricedAt time.Time `json:"pricedAt"`
}

// Quote settles the cart identified in the path. The delivery method and an
// optional promo code come from query parameters so the storefront can
// re-quote on every toggle without a body.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	method := pricing.DeliveryMethod(r.URL.Query().Get("delivery"))
	if method == "" {
		method = pricing.DeliveryCourier
	}
	if method != pricing.DeliveryPickup && method != pricing.DeliveryCourier {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "delivery must be pickup or delivery", nil)
		return
	}

	result, err := h.Svc.Quote(r.Context(), cartID, method, r.URL.Query().Get("promo"))
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, quoteView{Quote: result.Quote, PricedAt: result.PricedAt})
}

func writeQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrListingUnavailable):
		common.JSONError(w, http.StatusConflict, "LISTING_UNAVAILABLE", "an item in your cart is no longer available", nil)
	case promo.Reason(err) != "":
		common.JSONError(w, http.StatusUnprocessableEntity, "PROMO_REJECTED", err.Error(), map[string]string{"reason": promo.Reason(err)})
	default:
		common.WriteAppError(w, err)
	}
}
