package workspace

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sg-pedidos/pedidos/internal/clients"
	"github.com/sg-pedidos/pedidos/internal/expenses"
	"github.com/sg-pedidos/pedidos/internal/orders"
	"github.com/sg-pedidos/pedidos/internal/platform/httpx"
	"github.com/sg-pedidos/pedidos/internal/products"
	"github.com/sg-pedidos/pedidos/internal/reports"
	"github.com/sg-pedidos/pedidos/internal/shared"
)

// SessionHeader carries the caller's session id.
const SessionHeader = "X-Session-ID"

type storeKey struct{}

// Handler serves the JSON API over session stores.
type Handler struct {
	registry *Registry
	logger   *slog.Logger
}

// NewHandler builds the HTTP handler.
func NewHandler(registry *Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, logger: logger}
}

// Session resolves the session store for the request.
func (h *Handler) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := h.registry.Store(r.Header.Get(SessionHeader))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), storeKey{}, st)))
	})
}

func (h *Handler) store(r *http.Request) *Store {
	if st, ok := r.Context().Value(storeKey{}).(*Store); ok {
		return st
	}
	return h.registry.Store(r.Header.Get(SessionHeader))
}

// MountRoutes registers the API routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.Session)

		r.Get("/workspace", h.getWorkspace)

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.listClients)
			r.Post("/", h.createClient)
			r.Get("/{id}", h.getClient)
			r.Put("/{id}", h.updateClient)
			r.Delete("/{id}", h.deleteClient)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.createProduct)
			r.Get("/{id}", h.getProduct)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Post("/", h.createOrder)
			r.Get("/{id}", h.getOrder)
			r.Delete("/{id}", h.deleteOrder)
			r.Patch("/{id}/status", h.updateOrderStatus)
			r.Put("/{id}/items", h.replaceOrderItems)
			r.Post("/{id}/payments", h.recordPayment)
		})

		r.Get("/expenses", h.listExpenses)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales/weekly", h.salesByWeek)
			r.Get("/sales/monthly", h.salesByMonth)
			r.Get("/profit", h.profit)
		})
	})
}

type reportResponse struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !errorIsClient(err) {
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func errorIsClient(err error) bool {
	return errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrNotFound)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, shared.Validationf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.Validationf("%s must be an integer", name)
	}
	return v, nil
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.Validationf("%s must be a uuid", name)
	}
	return &id, nil
}

func (h *Handler) getWorkspace(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.store(r).Snapshot())
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	list, err := h.store(r).FetchClients(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.store(r).GetClient(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var in clients.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.store(r).CreateClient(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in clients.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.store(r).UpdateClient(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store(r).DeleteClient(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.store(r).FetchProducts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.store(r).GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in products.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.store(r).CreateProduct(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in products.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.store(r).UpdateProduct(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store(r).DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.store(r).FetchOrders(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.store(r).GetOrder(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.store(r).CreateOrder(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

type statusRequest struct {
	Status orders.Status `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store(r).UpdateOrderStatus(r.Context(), id, req.Status); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) replaceOrderItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in orders.ReplaceItemsInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.store(r).ReplaceOrderItems(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store(r).DeleteOrder(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in orders.PaymentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.store(r).RecordPayment(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	filter := expenses.ListFilter{Reference: r.URL.Query().Get("reference")}
	var err error
	if filter.ProductID, err = queryUUID(r, "product_id"); err != nil {
		h.fail(w, r, err)
		return
	}
	if filter.OrderID, err = queryUUID(r, "order_id"); err != nil {
		h.fail(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.store(r).ListExpenses(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// Report endpoints answer 200 with an empty data set when the procedure
// fails; the error travels alongside.
func (h *Handler) report(w http.ResponseWriter, r *http.Request, param string, limit int, call func(*Store, int) (any, error)) {
	n, err := queryInt(r, param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if n > limit {
		h.fail(w, r, shared.Validationf("%s must be at most %d", param, limit))
		return
	}
	data, err := call(h.store(r), n)
	resp := reportResponse{Data: data}
	if err != nil {
		h.logger.Warn("report failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		resp.Error = shared.UserSafeMessage(err)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) salesByWeek(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, "weeks", reports.MaxWeeks, func(st *Store, n int) (any, error) { return st.SalesByWeek(r.Context(), n) })
}

func (h *Handler) salesByMonth(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, "months", reports.MaxMonths, func(st *Store, n int) (any, error) { return st.SalesByMonth(r.Context(), n) })
}

func (h *Handler) profit(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, "periods", reports.MaxPeriods, func(st *Store, n int) (any, error) { return st.ProfitAndExpenses(r.Context(), n) })
}
