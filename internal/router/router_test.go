package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"qahwa/internal/cart"
	"qahwa/internal/checkout"
	"qahwa/internal/config"
	"qahwa/internal/guest"
	"qahwa/internal/handler"
	"qahwa/internal/media"
	"qahwa/internal/model"
	"qahwa/internal/repository/repomock"
	"qahwa/internal/service"
	"qahwa/internal/session"
	"qahwa/internal/telemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *session.Authenticator, *repomock.CartRepository) {
	t.Helper()
	logger := zerolog.Nop()
	metrics := telemetry.NewNopMetrics()
	images := media.NewPublicResolver("")

	products := &repomock.ProductRepository{}
	products.On("GetAll", mock.Anything, 10, 0).Return([]model.Product{{ID: 1, NameAR: "بن يمني", Price: decimal.NewFromInt(50)}}, nil).Maybe()
	products.On("GetByID", mock.Anything, int64(1)).Return(&model.Product{ID: 1, NameAR: "بن يمني", Price: decimal.NewFromInt(50), Available: true}, nil).Maybe()
	carts := &repomock.CartRepository{}
	orders := &repomock.OrderRepository{}
	addresses := &repomock.AddressRepository{}

	manager := cart.NewManager(carts, products, guest.NewMemoryStorage(), metrics, logger)
	assembler := checkout.NewAssembler(orders, carts, addresses, metrics, logger)
	auth := session.NewAuthenticator(config.AuthConfig{JWTSecret: "router-secret"})

	h := Handlers{
		Products:  handler.NewProductHandler(service.NewProductService(products, images, logger), logger),
		Cart:      handler.NewCartHandler(manager, images, logger),
		Orders:    handler.NewOrderHandler(service.NewOrderService(orders, images, logger), manager, assembler, logger),
		Addresses: handler.NewAddressHandler(service.NewAddressService(addresses, logger), logger),
	}
	return New(h, auth, "qahwa-test", logger), auth, carts
}

func TestRouter(t *testing.T) {
	r, auth, carts := newTestRouter(t)

	userID := uuid.New()
	carts.On("ListByUser", mock.Anything, userID).Return([]model.CartRow{}, nil).Maybe()
	token, err := auth.Issue(userID, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		headers        map[string]string
		expectedStatus int
	}{
		{name: "Health", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "Products are public", method: http.MethodGet, path: "/api/products", expectedStatus: http.StatusOK},
		{name: "Product by id is public", method: http.MethodGet, path: "/api/products/1", expectedStatus: http.StatusOK},
		{name: "Non numeric product id", method: http.MethodGet, path: "/api/products/abc", expectedStatus: http.StatusNotFound},
		{name: "Cart needs a session", method: http.MethodGet, path: "/api/cart", expectedStatus: http.StatusUnauthorized},
		{name: "Guest cart", method: http.MethodGet, path: "/api/cart", headers: map[string]string{"X-Guest-ID": "g-1"}, expectedStatus: http.StatusOK},
		{name: "User cart", method: http.MethodGet, path: "/api/cart", headers: map[string]string{"Authorization": "Bearer " + token}, expectedStatus: http.StatusOK},
		{
			name:           "Guest add to cart",
			method:         http.MethodPost,
			path:           "/api/cart/items",
			body:           `{"productId":1,"quantity":2}`,
			headers:        map[string]string{"X-Guest-ID": "g-1"},
			expectedStatus: http.StatusOK,
		},
		{name: "Guest orders", method: http.MethodGet, path: "/api/orders", headers: map[string]string{"X-Guest-ID": "g-1"}, expectedStatus: http.StatusUnauthorized},
		{name: "Preflight", method: http.MethodOptions, path: "/api/cart", expectedStatus: http.StatusNoContent},
		{name: "Unknown route", method: http.MethodGet, path: "/api/unknown", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}
