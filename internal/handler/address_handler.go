package handler

import (
	"net/http"

	"qahwa/internal/model"
	"qahwa/internal/service"

	"github.com/rs/zerolog"
)

// AddressHandler handles the user's shipping addresses.
type AddressHandler struct {
	service service.AddressService
	logger  zerolog.Logger
}

// NewAddressHandler creates a new address handler.
func NewAddressHandler(service service.AddressService, logger zerolog.Logger) *AddressHandler {
	return &AddressHandler{
		service: service,
		logger:  logger.With().Str("handler", "address").Logger(),
	}
}

// List handles GET /api/addresses.
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r, h.logger)
	if !ok {
		return
	}

	addresses, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to retrieve addresses", h.logger)
		return
	}
	if addresses == nil {
		addresses = []model.UserAddress{}
	}

	writeJSON(w, http.StatusOK, addresses)
}

// Create handles POST /api/addresses.
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r, h.logger)
	if !ok {
		return
	}
	var req model.AddressRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	address, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, address)
}

// SetDefault handles PUT /api/addresses/{id}/default.
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r, h.logger)
	if !ok {
		return
	}
	addressID, ok := uuidVar(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.service.SetDefault(r.Context(), userID, addressID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, MutationResponse{Notice: model.Success(model.MsgDefaultSaved)})
}
