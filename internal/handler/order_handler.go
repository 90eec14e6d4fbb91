package handler

import (
	"net/http"

	"qahwa/internal/cart"
	"qahwa/internal/checkout"
	"qahwa/internal/model"
	"qahwa/internal/service"

	"github.com/rs/zerolog"
)

// OrderResponse is returned by checkout.
type OrderResponse struct {
	Notice model.Notice `json:"notice"`
	Order  *model.Order `json:"order"`
}

// OrdersResponse is returned by cancellation.
type OrdersResponse struct {
	Notice model.Notice  `json:"notice"`
	Orders []model.Order `json:"orders"`
}

// OrderHandler handles checkout and order-related HTTP requests.
type OrderHandler struct {
	service   service.OrderService
	carts     *cart.Manager
	assembler *checkout.Assembler
	logger    zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, carts *cart.Manager, assembler *checkout.Assembler, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:   service,
		carts:     carts,
		assembler: assembler,
		logger:    logger.With().Str("handler", "order").Logger(),
	}
}

// Checkout handles POST /api/checkout requests.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	sess, ok := sessionFrom(w, r, h.logger)
	if !ok {
		return
	}
	// Guests are refused before their cart storage is touched.
	if !sess.Authenticated() {
		writeDomainError(w, model.ErrNotAuthenticated, h.logger)
		return
	}
	e, err := h.carts.Open(r.Context(), sess)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	order, notice, err := h.assembler.Checkout(r.Context(), e, req.AddressID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, OrderResponse{Notice: notice, Order: order})
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to retrieve orders", h.logger)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := uuidVar(w, r, "id", h.logger)
	if !ok {
		return
	}

	order, err := h.service.GetByID(r.Context(), userID, orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Cancel handles POST /api/orders/{id}/cancel requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := uuidVar(w, r, "id", h.logger)
	if !ok {
		return
	}

	orders, notice, err := h.assembler.Cancel(r.Context(), sess, orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, OrdersResponse{Notice: notice, Orders: orders})
}
