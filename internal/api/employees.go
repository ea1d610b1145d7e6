package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"pharmacy/m/domain"
	"pharmacy/m/internal/employees"
)

type employeeRequest struct {
	Name      string          `json:"name" validate:"required,max=100"`
	Gender    string          `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Age       *int64          `json:"age" validate:"omitempty,gte=0,lte=150"`
	StartDate domain.Date     `json:"startDate"`
	Role      string          `json:"role" validate:"max=50"`
	Salary    decimal.Decimal `json:"salary"`
	Phones    []string        `json:"phones" validate:"omitempty,dive,max=20"`
}

func (req employeeRequest) toInput() employees.Input {
	return employees.Input{
		Name:      req.Name,
		Gender:    req.Gender,
		Age:       req.Age,
		StartDate: req.StartDate,
		Role:      req.Role,
		Salary:    req.Salary,
		Phones:    req.Phones,
	}
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Employees.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	e, err := h.svc.Employees.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	e, err := h.svc.Employees.Create(r.Context(), req.toInput())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req employeeRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	e, err := h.svc.Employees.Update(r.Context(), id, req.toInput())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *Handler) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.Employees.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type salaryPayload struct {
	Salary decimal.Decimal `json:"salary"`
}

func (h *Handler) getSalary(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	salary, err := h.svc.Employees.GetSalary(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, salaryPayload{Salary: salary})
}

func (h *Handler) updateSalary(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req salaryPayload
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.Employees.UpdateSalary(r.Context(), id, req.Salary); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}
