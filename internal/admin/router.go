package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the admin surface. Every route requires the bearer token
// except the health probe.
func NewRouter(handler *Handler, token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireToken(token))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", handler.ListCategories)
			r.Post("/", handler.CreateCategory)
			r.Put("/{id}", handler.UpdateCategory)
			r.Delete("/{id}", handler.DeleteCategory)
			r.Get("/{id}/products", handler.ListCategoryProducts)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", handler.CreateProduct)
			r.Get("/{id}", handler.GetProduct)
			r.Put("/{id}", handler.UpdateProduct)
			r.Delete("/{id}", handler.DeleteProduct)
			r.Get("/{id}/packages", handler.ListProductPackages)
		})

		r.Route("/packages", func(r chi.Router) {
			r.Post("/", handler.CreatePackage)
			r.Put("/{id}", handler.UpdatePackage)
			r.Delete("/{id}", handler.DeletePackage)
		})

		r.Route("/districts", func(r chi.Router) {
			r.Get("/", handler.ListDistricts)
			r.Post("/", handler.CreateDistrict)
			r.Put("/{id}", handler.UpdateDistrict)
			r.Delete("/{id}", handler.DeleteDistrict)
		})

		r.Route("/promo", func(r chi.Router) {
			r.Get("/", handler.ListPromoCodes)
			r.Post("/", handler.CreatePromoCode)
			r.Put("/{id}", handler.UpdatePromoCode)
			r.Delete("/{id}", handler.DeletePromoCode)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", handler.ListOrders)
			r.Get("/{id}", handler.GetOrder)
			r.Put("/{id}/status", handler.UpdateOrderStatus)
		})
	})

	return r
}
