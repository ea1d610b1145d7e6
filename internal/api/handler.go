package api

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"pharmacy/m/internal/apperr"
	"pharmacy/m/internal/customers"
	"pharmacy/m/internal/employees"
	"pharmacy/m/internal/inventory"
	"pharmacy/m/internal/orders"
)

// Services are the dependencies the HTTP handlers call into.
type Services struct {
	Ledger      *inventory.Ledger
	Coordinator *orders.Coordinator
	Bills       *orders.Bills
	Customers   *customers.Resolver
	Employees   *employees.Service
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	svc            Services
	log            logrus.FieldLogger
	validate       *validator.Validate
	allowedOrigins string
}

// New constructs a Handler. allowedOrigins is a comma-separated CORS list;
// empty disables CORS headers.
func New(svc Services, logger logrus.FieldLogger, allowedOrigins string) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		svc:            svc,
		log:            logger.WithField("module", "api"),
		validate:       v,
		allowedOrigins: allowedOrigins,
	}
}

// Router wires up the HTTP API. The same routes are served at the root and
// under /api, where the browser front-end calls them.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(h.allowedOrigins))

	h.routes(r)
	r.Route("/api", h.routes)

	return r
}

func (h *Handler) routes(r chi.Router) {
	r.Get("/health", h.health)

	r.Route("/medicines", func(r chi.Router) {
		r.Get("/", h.listMedicines)
		r.Post("/", h.addMedicine)
		r.Get("/expired", h.listExpired)
		r.Get("/expiring", h.expiryAlerts)
		r.Get("/{id}", h.medicineBatches)
		r.Put("/{id}/stock", h.adjustStock)
	})
	r.Get("/disposals", h.listDisposals)

	r.Post("/orders", h.placeOrder)
	r.Post("/createOrder", h.placeOrder)
	r.Post("/create-order", h.placeOrder)

	r.Route("/bills", func(r chi.Router) {
		r.Get("/", h.listBills)
		r.Get("/{no}", h.getBill)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/sales/daily", h.dailySales)
		r.Get("/sales/monthly", h.monthlySales)
	})

	r.Get("/customers", h.listCustomers)

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.listEmployees)
		r.Post("/", h.createEmployee)
		r.Get("/{id}", h.getEmployee)
		r.Put("/{id}", h.updateEmployee)
		r.Delete("/{id}", h.deleteEmployee)
		r.Get("/{id}/salary", h.getSalary)
		r.Put("/{id}/salary", h.updateSalary)
	})
	// singular form used by the salary screen
	r.Get("/employee/{id}/salary", h.getSalary)
	r.Put("/employee/{id}/salary", h.updateSalary)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

// decodeJSON decodes the body into dest and runs its validate tags.
func (h *Handler) decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	if err := h.validate.Struct(dest); err != nil {
		return validationError(err)
	}
	return nil
}

func parseID(r *http.Request, param string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", param)
	}
	return id, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}
