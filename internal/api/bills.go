package api

import (
	"net/http"
	"strconv"
	"strings"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/orders"
)

func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	no, err := parseID(r, "no")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	bill, err := h.svc.Bills.Get(r.Context(), no)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, bill)
}

// listBills doubles as the sales report: start_date and end_date are
// inclusive YYYY-MM-DD bounds, items=true attaches line items.
func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f orders.BillFilter

	if raw := strings.TrimSpace(q.Get("customer_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.respondError(w, r, apperr.Validation("invalid customer_id"))
			return
		}
		f.CustomerID = id
	}
	for _, p := range []struct {
		name string
		dst  *domain.Date
	}{{"start_date", &f.StartDate}, {"end_date", &f.EndDate}} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		d, err := domain.ParseDate(raw)
		if err != nil {
			h.respondError(w, r, apperr.Validation("%s must be in YYYY-MM-DD format", p.name))
			return
		}
		*p.dst = d
	}
	f.WithItems, _ = strconv.ParseBool(q.Get("items"))

	bills, err := h.svc.Bills.List(r.Context(), f)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, bills)
}

// Reports
func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Bills.Daily(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handler) monthlySales(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Bills.Monthly(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}
