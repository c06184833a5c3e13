package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Buyers   *BuyerHandler
	Orders   *OrdersHandler
	Products *ProductHandler
	Reviews  *ReviewHandler
	Pages    *Pages
}

// NewRouter mounts the JSON API under /api/v1 and the HTML pages at the root.
func NewRouter(h Handlers, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(MockAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/buyers", func(r chi.Router) {
			r.Post("/", h.Buyers.Register)
			r.Get("/", h.Buyers.Lookup)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Buyers.GetCart)
			r.Post("/items", h.Buyers.AddCartItem)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Orders.ListOrders)
			r.Post("/", h.Orders.CreateOrder)
			r.Get("/{order_id}", h.Orders.GetOrder)
			r.Post("/{order_id}/status", h.Orders.UpdateStatus)
			r.Post("/{order_id}/delivery", h.Orders.ConfirmDelivery)
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{id}", h.Products.Get)
		})
		r.Route("/listings/{listing_id}/reviews", func(r chi.Router) {
			r.Get("/", h.Reviews.List)
			r.Put("/", h.Reviews.Upsert)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/marketplace", http.StatusFound)
	})
	r.Get("/marketplace", h.Pages.Marketplace)
	r.Get("/marketplace/{id}", h.Pages.Product)
	r.Get("/dashboard", h.Pages.Dashboard)
	r.Get("/dashboard/orders/{order_id}", h.Pages.OrderDetail)
	r.Post("/dashboard/orders/{order_id}/actions/{action}", h.Pages.OrderAction)

	return otelhttp.NewHandler(r, "storefront")
}
