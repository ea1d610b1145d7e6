package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/inventory"
)

const defaultExpiryWindowDays = 30

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Ledger.ListStock(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) listExpired(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Ledger.ListExpired(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) expiryAlerts(w http.ResponseWriter, r *http.Request) {
	days := defaultExpiryWindowDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		var err error
		if days, err = strconv.Atoi(raw); err != nil {
			h.respondError(w, r, apperr.Validation("days must be a whole number"))
			return
		}
	}
	rows, err := h.svc.Ledger.ListExpiring(r.Context(), days)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) medicineBatches(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	batches, err := h.svc.Ledger.Batches(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, batches)
}

type medicineRequest struct {
	Name         string           `json:"name" validate:"required,max=100"`
	Manufacturer string           `json:"manufacturer" validate:"max=100"`
	Expiry       domain.Date      `json:"expiry"`
	Cost         *decimal.Decimal `json:"cost" validate:"required"`
	BatchNo      string           `json:"batchNo" validate:"required,max=50"`
	Qty          int64            `json:"qty" validate:"required,gt=0"`
	Category     string           `json:"category" validate:"max=50"`
	BatchPrice   decimal.Decimal  `json:"batchPrice"`
}

func (h *Handler) addMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicineRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := h.svc.Ledger.AddMedicine(r.Context(), inventory.NewStock{
		Name:         req.Name,
		Manufacturer: strings.TrimSpace(req.Manufacturer),
		Expiry:       req.Expiry,
		CostPrice:    req.Cost,
		BatchNo:      req.BatchNo,
		Quantity:     req.Qty,
		Category:     strings.TrimSpace(req.Category),
		BatchPrice:   req.BatchPrice,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"medId": id})
}

type stockRequest struct {
	BatchNo string `json:"batchNo" validate:"required"`
	Qty     int64  `json:"qty" validate:"required,gt=0"`
	Action  string `json:"action" validate:"required,oneof=add dispose"`
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req stockRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	newQty, err := h.svc.Ledger.Adjust(r.Context(), id, req.BatchNo, req.Qty, inventory.Action(req.Action))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"newQuantity": newQty})
}

func (h *Handler) listDisposals(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Ledger.ListDisposals(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
