package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/perfume-shop/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware магазина.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(chimiddleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Get("/healthz", h.Healthz)

	r.Group(func(r chi.Router) {
		r.Use(custommiddleware.GzipMiddleware)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			r.Use(custommiddleware.RequireAdmin)

			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Post("/add", h.AddToCart)
			r.Get("/{phone}", h.GetCart)
			r.Delete("/remove/{phone}/{inventoryID}", h.RemoveFromCart)
			r.Put("/update", h.UpdateCart)
		})

		r.Route("/order", func(r chi.Router) {
			r.Post("/checkout", h.Checkout)
			r.Get("/user/{phone}", h.GetUserOrders)

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)
				r.Use(custommiddleware.RequireAdmin)

				r.Get("/", h.GetAllOrders)
				r.Put("/{id}/status", h.UpdateOrderStatus)
				r.Put("/{id}/payment", h.UpdatePaymentStatus)
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.ListInventory)
			r.Get("/{id}", h.GetInventory)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)
				r.Use(custommiddleware.RequireAdmin)

				r.Post("/", h.CreateInventory)
				r.Put("/{id}", h.UpdateInventory)
				r.Delete("/{id}", h.DeleteInventory)
				r.Patch("/{id}/stock", h.AdjustStock)
			})
		})

		r.Route("/perfumes", func(r chi.Router) {
			r.Get("/", h.ListPerfumes)
			r.Get("/{id}", h.GetPerfume)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)
				r.Use(custommiddleware.RequireAdmin)

				r.Post("/", h.CreatePerfume)
				r.Put("/{id}", h.UpdatePerfume)
				r.Delete("/{id}", h.DeletePerfume)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
