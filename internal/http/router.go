package http

import (
	"net/http"
	"time"

	"github.com/easymeds/platform/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Carts          *CartHandler
	Checkout       *CheckoutHandler
	Orders         *OrderHandler
	Catalog        *CatalogHandler
	Tokens         *auth.TokenManager
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Catalog.ListItems)
			r.Get("/{item_id}", cfg.Catalog.GetItem)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cfg.Carts.GetCart)
			r.Post("/items", cfg.Carts.AddItem)
			r.Put("/items/{item_id}", cfg.Carts.UpdateQuantity)
			r.Delete("/items/{item_id}", cfg.Carts.RemoveItem)
			r.Delete("/", cfg.Carts.ClearCart)
		})

		r.Post("/checkout", cfg.Checkout.Checkout)

		r.Get("/orders/{order_id}", cfg.Orders.GetOrder)

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.Tokens))
			r.Get("/orders", cfg.Orders.ListOrders)
			r.Patch("/orders/{order_id}/status", cfg.Orders.UpdateStatus)
		})
	})

	return r
}
