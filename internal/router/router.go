package router

import (
	"net/http"

	"qahwa/internal/handler"
	"qahwa/internal/middleware"
	"qahwa/internal/session"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Products  *handler.ProductHandler
	Cart      *handler.CartHandler
	Orders    *handler.OrderHandler
	Addresses *handler.AddressHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth *session.Authenticator, serviceName string, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check endpoint (no session required)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// The catalogue is public.
	api.HandleFunc("/products", h.Products.GetAll).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", h.Products.GetByID).Methods(http.MethodGet)

	// Everything else needs a user or guest session.
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Session(auth, logger))

	protected.HandleFunc("/cart", h.Cart.Get).Methods(http.MethodGet)
	protected.HandleFunc("/cart", h.Cart.Clear).Methods(http.MethodDelete)
	protected.HandleFunc("/cart/items", h.Cart.AddItem).Methods(http.MethodPost)
	protected.HandleFunc("/cart/items/{productId:[0-9]+}", h.Cart.UpdateItem).Methods(http.MethodPut)
	protected.HandleFunc("/cart/items/{productId:[0-9]+}", h.Cart.RemoveItem).Methods(http.MethodDelete)
	protected.HandleFunc("/cart/merge", h.Cart.Merge).Methods(http.MethodPost)

	protected.HandleFunc("/checkout", h.Orders.Checkout).Methods(http.MethodPost)
	protected.HandleFunc("/orders", h.Orders.List).Methods(http.MethodGet)
	protected.HandleFunc("/orders/{id}", h.Orders.GetByID).Methods(http.MethodGet)
	protected.HandleFunc("/orders/{id}/cancel", h.Orders.Cancel).Methods(http.MethodPost)

	protected.HandleFunc("/addresses", h.Addresses.List).Methods(http.MethodGet)
	protected.HandleFunc("/addresses", h.Addresses.Create).Methods(http.MethodPost)
	protected.HandleFunc("/addresses/{id}/default", h.Addresses.SetDefault).Methods(http.MethodPut)

	// Apply middleware in order: Recovery -> otelhttp -> Logging -> CORS
	var handler http.Handler = r
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = otelhttp.NewHandler(handler, serviceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
