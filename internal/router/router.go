package router

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Products  *handler.ProductHandler
	Orders    *handler.OrderHandler
	Coupons   *handler.CouponHandler
	Addresses *handler.AddressHandler
	Users     *handler.UserHandler
	Dashboard *handler.DashboardHandler
}

// Options controls cross-cutting behaviour of the router.
type Options struct {
	// Tracing wraps the router in OpenTelemetry HTTP instrumentation.
	Tracing     bool
	ServiceName string
}

// New creates a new HTTP router with all routes and middleware configured.
// accounts backs the admin re-check on admin-only routes.
func New(h Handlers, tokens *auth.TokenManager, accounts middleware.AccountLookup, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.Authenticate(tokens, logger)
	requireAdmin := middleware.RequireAdmin(accounts, logger)
	user := func(fn http.HandlerFunc) http.Handler { return authed(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return authed(requireAdmin(fn)) }

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Catalogue
	mux.HandleFunc("GET /api/products", h.Products.List)
	mux.HandleFunc("GET /api/products/{id}", h.Products.GetByID)
	mux.Handle("POST /api/products", admin(h.Products.Create))
	mux.Handle("PUT /api/products/{id}", admin(h.Products.Update))
	mux.Handle("DELETE /api/products/{id}", admin(h.Products.Delete))

	// Orders
	mux.Handle("POST /api/orders", user(h.Orders.Create))
	mux.Handle("GET /api/orders", user(h.Orders.List))
	mux.Handle("GET /api/orders/{id}", user(h.Orders.GetByID))
	mux.Handle("POST /api/orders/{id}/cancel", user(h.Orders.Cancel))
	mux.Handle("PATCH /api/orders/{id}/status", admin(h.Orders.UpdateStatus))
	mux.Handle("POST /api/orders/{id}/refund", admin(h.Orders.Refund))
	mux.Handle("PATCH /api/orders/{id}/payment", admin(h.Orders.UpdatePaymentStatus))

	// Coupons
	mux.Handle("POST /api/coupons/check", user(h.Coupons.Check))
	mux.Handle("GET /api/coupons", admin(h.Coupons.List))
	mux.Handle("POST /api/coupons", admin(h.Coupons.Create))
	mux.Handle("GET /api/coupons/{id}", admin(h.Coupons.GetByID))
	mux.Handle("PUT /api/coupons/{id}", admin(h.Coupons.Update))
	mux.Handle("DELETE /api/coupons/{id}", admin(h.Coupons.Delete))

	// Address book
	mux.Handle("GET /api/addresses", user(h.Addresses.List))
	mux.Handle("POST /api/addresses", user(h.Addresses.Create))
	mux.Handle("PUT /api/addresses/{id}", user(h.Addresses.Update))
	mux.Handle("DELETE /api/addresses/{id}", user(h.Addresses.Delete))
	mux.Handle("PATCH /api/addresses/{id}/default", user(h.Addresses.SetDefault))

	// Accounts
	mux.Handle("GET /api/users/me", user(h.Users.Me))
	mux.Handle("GET /api/users", admin(h.Users.List))
	mux.Handle("POST /api/users", admin(h.Users.Create))
	mux.Handle("PATCH /api/users/{id}/role", admin(h.Users.UpdateRole))
	mux.Handle("PATCH /api/users/{id}/active", admin(h.Users.SetActive))

	mux.Handle("GET /api/dashboard/stats", admin(h.Dashboard.Stats))

	// Apply middleware in order: Recovery -> Logging -> CORS. Authentication is
	// per route so the mux sees the request the logger holds.
	var chain http.Handler = mux
	chain = middleware.CORS(chain)
	chain = middleware.Logging(logger)(chain)
	chain = middleware.Recovery(logger)(chain)

	if opts.Tracing {
		chain = otelhttp.NewHandler(chain, opts.ServiceName)
	}

	return chain
}
