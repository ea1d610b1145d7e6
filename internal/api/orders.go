package api

import (
	"net/http"

	"pharmacy/m/internal/customers"
	"pharmacy/m/internal/orders"
)

type customerDetailsRequest struct {
	Name    string `json:"name" validate:"max=100"`
	Gender  string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Age     *int64 `json:"age" validate:"omitempty,gte=0,lte=150"`
	Address string `json:"address" validate:"max=255"`
	Area    string `json:"area"`
	City    string `json:"city"`
	Phone   string `json:"phone" validate:"required,max=20"`
}

type orderItemRequest struct {
	MedID int64 `json:"medId" validate:"required,gt=0"`
	Qty   int64 `json:"qty" validate:"required,gt=0"`
}

type orderRequest struct {
	CustomerDetails customerDetailsRequest `json:"customerDetails"`
	OrderItems      []orderItemRequest     `json:"orderItems" validate:"required,min=1,dive"`
	EmployeeID      int64                  `json:"employeeId" validate:"required,gt=0"`
}

func (req orderRequest) toOrder() orders.Request {
	items := make([]orders.Item, len(req.OrderItems))
	for i, it := range req.OrderItems {
		items[i] = orders.Item{MedicineID: it.MedID, Quantity: it.Qty}
	}
	c := req.CustomerDetails
	return orders.Request{
		Customer: customers.Details{
			Name:    c.Name,
			Gender:  c.Gender,
			Age:     c.Age,
			Address: c.Address,
			Area:    c.Area,
			City:    c.City,
			Phone:   c.Phone,
		},
		Items:      items,
		EmployeeID: req.EmployeeID,
	}
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	receipt, err := h.svc.Coordinator.PlaceOrder(r.Context(), req.toOrder())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Customers.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}
