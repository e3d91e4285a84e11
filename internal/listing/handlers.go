package listing

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiosko-dev/backend-consign/internal/common"
)

// Handler exposes the display price endpoints.
type Handler struct {
	Svc *Service
}

type batchPricesRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,uuid4"`
}

// GetPrice returns the current display price for one listing.
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid listing id", nil)
		return
	}
	view, err := h.Svc.DisplayPrice(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "listing not found", nil)
			return
		}
		common.WriteAppError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// BatchPrices returns display prices for up to 100 listings, all resolved at
// the same instant.
func (h *Handler) BatchPrices(w http.ResponseWriter, r *http.Request) {
	var req batchPricesRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid listing id", nil)
			return
		}
		ids = append(ids, id)
	}
	views, err := h.Svc.DisplayPrices(r.Context(), ids)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, views)
}
