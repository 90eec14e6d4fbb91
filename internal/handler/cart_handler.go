package handler

import (
	"context"
	"net/http"

	"qahwa/internal/cart"
	"qahwa/internal/media"
	"qahwa/internal/model"
	"qahwa/internal/session"

	"github.com/rs/zerolog"
)

// CartHandler exposes the cart of the request's session.
type CartHandler struct {
	carts  *cart.Manager
	images media.Resolver
	logger zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts *cart.Manager, images media.Resolver, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		images: images,
		logger: logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.view(r.Context(), e))
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req model.AddToCartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.ProductID <= 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "productId is required", h.logger)
		return
	}

	e, ok := h.open(w, r)
	if !ok {
		return
	}
	notice, err := e.Add(r.Context(), req.ProductID, req.Quantity)
	h.respond(w, r, e, notice, err)
}

// UpdateItem handles PUT /api/cart/items/{productId}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := int64Var(w, r, "productId", h.logger)
	if !ok {
		return
	}
	var req model.UpdateQuantityRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	e, ok := h.open(w, r)
	if !ok {
		return
	}
	notice, err := e.UpdateQuantity(r.Context(), productID, req.Quantity)
	h.respond(w, r, e, notice, err)
}

// RemoveItem handles DELETE /api/cart/items/{productId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := int64Var(w, r, "productId", h.logger)
	if !ok {
		return
	}

	e, ok := h.open(w, r)
	if !ok {
		return
	}
	notice, err := e.Remove(r.Context(), productID)
	h.respond(w, r, e, notice, err)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	e, ok := h.open(w, r)
	if !ok {
		return
	}
	notice, err := e.Clear(r.Context())
	h.respond(w, r, e, notice, err)
}

// Merge handles POST /api/cart/merge. The guest cart is named by the guest id
// header while the bearer token selects the user.
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r, h.logger)
	if !ok {
		return
	}

	e, notice, err := h.carts.Merge(r.Context(), sess, r.Header.Get(session.HeaderGuestID))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	h.respond(w, r, e, notice, nil)
}

func (h *CartHandler) open(w http.ResponseWriter, r *http.Request) (*cart.Engine, bool) {
	sess, ok := sessionFrom(w, r, h.logger)
	if !ok {
		return nil, false
	}
	e, err := h.carts.Open(r.Context(), sess)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return nil, false
	}
	return e, true
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, e *cart.Engine, notice model.Notice, err error) {
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	view := h.view(r.Context(), e)
	writeJSON(w, http.StatusOK, MutationResponse{Notice: notice, Cart: &view})
}

func (h *CartHandler) view(ctx context.Context, e *cart.Engine) model.CartView {
	view := e.View()
	for i := range view.Lines {
		if view.Lines[i].Product == nil {
			continue
		}
		p := *view.Lines[i].Product
		media.ResolveSnapshot(ctx, h.images, &p)
		view.Lines[i].Product = &p
	}
	return view
}
