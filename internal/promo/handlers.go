package promo

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/kiosko-dev/backend-consign/internal/common"
	"github.com/kiosko-dev/backend-consign/internal/pricing"
)

// Writer captures the mutations the admin endpoints need.
type Writer interface {
	Create(ctx context.Context, p UpsertParams) (Record, error)
	Update(ctx context.Context, code string, p UpsertParams) (Record, error)
}

// Handler exposes promo administration and preview endpoints.
type Handler struct {
	Store Writer
	Svc   *Service
}

type codePayload struct {
	Code       string     `json:"code" validate:"required,min=1,max=64"`
	Kind       string     `json:"kind" validate:"required,oneof=percentage fixed_amount free_shipping"`
	Value      string     `json:"value"`
	Active     *bool      `json:"active"`
	StartsAt   *time.Time `json:"startsAt"`
	EndsAt     *time.Time `json:"endsAt"`
	UsageLimit *int32     `json:"usageLimit" validate:"omitempty,min=0"`
}

type previewRequest struct {
	Code        string `json:"code" validate:"required"`
	Subtotal    string `json:"subtotal" validate:"required"`
	DeliveryFee string `json:"deliveryFee"`
}

type codeView struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Kind       Kind       `json:"kind"`
	Value      string     `json:"value"`
	Active     bool       `json:"active"`
	StartsAt   *time.Time `json:"startsAt,omitempty"`
	EndsAt     *time.Time `json:"endsAt,omitempty"`
	UsageLimit *int32     `json:"usageLimit,omitempty"`
	UsedCount  int32      `json:"usedCount"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func viewOf(rec Record) codeView {
	return codeView{
		ID:         rec.ID.String(),
		Code:       rec.Code.Code,
		Kind:       rec.Kind,
		Value:      rec.Value.StringFixed(2),
		Active:     rec.Active,
		StartsAt:   rec.StartsAt,
		EndsAt:     rec.EndsAt,
		UsageLimit: rec.UsageLimit,
		UsedCount:  rec.UsedCount,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

// Create registers a new promo code.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload codePayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	params, err := buildParams(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	rec, err := h.Store.Create(r.Context(), params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "promo code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create promo code", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, viewOf(rec))
}

// Update mutates an existing promo code identified by code.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	var payload codePayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	params, err := buildParams(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	rec, err := h.Store.Update(r.Context(), code, params)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "promo code not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update promo code", nil)
		return
	}
	common.JSONData(w, http.StatusOK, viewOf(rec))
}

// Preview evaluates a code against client-supplied totals without consuming
// a use.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	subtotal, err := decimal.NewFromString(req.Subtotal)
	if err != nil || subtotal.IsNegative() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid subtotal", nil)
		return
	}
	fee := decimal.Zero
	if req.DeliveryFee != "" {
		fee, err = decimal.NewFromString(req.DeliveryFee)
		if err != nil || fee.IsNegative() {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid delivery fee", nil)
			return
		}
	}
	result, err := h.Svc.Preview(r.Context(), req.Code, pricing.Totals{Subtotal: subtotal, DeliveryFee: fee})
	if err != nil {
		if reason := Reason(err); reason != "" {
			common.JSONError(w, http.StatusUnprocessableEntity, "PROMO_REJECTED", err.Error(), map[string]string{"reason": reason})
			return
		}
		common.WriteAppError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

func buildParams(payload codePayload) (UpsertParams, error) {
	kind := Kind(payload.Kind)
	value := decimal.Zero
	if payload.Value != "" {
		var err error
		value, err = decimal.NewFromString(payload.Value)
		if err != nil {
			return UpsertParams{}, errors.New("invalid value")
		}
	}
	switch kind {
	case KindPercentage:
		if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
			return UpsertParams{}, errors.New("percentage value must be between 0 and 100")
		}
	case KindFixedAmount:
		if !value.IsPositive() {
			return UpsertParams{}, errors.New("fixed amount value must be positive")
		}
	case KindFreeShipping:
		value = decimal.Zero
	}
	if payload.StartsAt != nil && payload.EndsAt != nil && payload.EndsAt.Before(*payload.StartsAt) {
		return UpsertParams{}, errors.New("endsAt must not precede startsAt")
	}
	active := true
	if payload.Active != nil {
		active = *payload.Active
	}
	return UpsertParams{
		Code:       strings.TrimSpace(payload.Code),
		Kind:       kind,
		Value:      value,
		Active:     active,
		StartsAt:   payload.StartsAt,
		EndsAt:     payload.EndsAt,
		UsageLimit: payload.UsageLimit,
	}, nil
}
