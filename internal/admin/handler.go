// Package admin is the back-office shell: a thin chi server that proxies
// catalog, promo and order management calls to the store backend. It holds no
// business logic of its own; it authenticates the operator and translates
// between HTTP and the typed client.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/seafood-miniapp/internal/backend"
)

// Service is the slice of the backend client the shell proxies to.
type Service interface {
	Categories(ctx context.Context) ([]backend.Category, error)
	CreateCategory(ctx context.Context, cat backend.Category) (backend.Category, error)
	UpdateCategory(ctx context.Context, cat backend.Category) (backend.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CategoryProducts(ctx context.Context, categoryID string) ([]backend.Product, error)
	Product(ctx context.Context, id string) (backend.Product, error)
	CreateProduct(ctx context.Context, p backend.Product) (backend.Product, error)
	UpdateProduct(ctx context.Context, p backend.Product) (backend.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ProductPackages(ctx context.Context, productID string) ([]backend.Package, error)
	CreatePackage(ctx context.Context, p backend.Package) (backend.Package, error)
	UpdatePackage(ctx context.Context, p backend.Package) (backend.Package, error)
	DeletePackage(ctx context.Context, id string) error

	Districts(ctx context.Context) ([]backend.District, error)
	CreateDistrict(ctx context.Context, d backend.District) (backend.District, error)
	UpdateDistrict(ctx context.Context, d backend.District) (backend.District, error)
	DeleteDistrict(ctx context.Context, id string) error

	PromoCodes(ctx context.Context) ([]backend.PromoCode, error)
	CreatePromoCode(ctx context.Context, p backend.PromoCode) (backend.PromoCode, error)
	UpdatePromoCode(ctx context.Context, p backend.PromoCode) (backend.PromoCode, error)
	DeletePromoCode(ctx context.Context, id string) error

	Orders(ctx context.Context) ([]backend.Order, error)
	Order(ctx context.Context, id string) (backend.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (backend.Order, error)
}

// Handler serves the admin HTTP surface.
type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// ── Categories ─────────────────────────────────────────────────────────────

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var cat backend.Category
	if err := json.NewDecoder(r.Body).Decode(&cat); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	out, err := h.svc.CreateCategory(r.Context(), cat)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var cat backend.Category
	if err := json.NewDecoder(r.Body).Decode(&cat); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	cat.ID = chi.URLParam(r, "id")
	out, err := h.svc.UpdateCategory(r.Context(), cat)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCategoryProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.CategoryProducts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// ── Products ───────────────────────────────────────────────────────────────

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p backend.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	out, err := h.svc.CreateProduct(r.Context(), p)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p backend.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	p.ID = chi.URLParam(r, "id")
	out, err := h.svc.UpdateProduct(r.Context(), p)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Packages ───────────────────────────────────────────────────────────────

func (h *Handler) ListProductPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.svc.ProductPackages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkgs)
}

func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var p backend.Package
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	out, err := h.svc.CreatePackage(r.Context(), p)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	var p backend.Package
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	p.ID = chi.URLParam(r, "id")
	out, err := h.svc.UpdatePackage(r.Context(), p)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePackage(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Districts ──────────────────────────────────────────────────────────────

func (h *Handler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	ds, err := h.svc.Districts(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (h *Handler) CreateDistrict(w http.ResponseWriter, r *http.Request) {
	var d backend.District
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	out, err := h.svc.CreateDistrict(r.Context(), d)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) UpdateDistrict(w http.ResponseWriter, r *http.Request) {
	var d backend.District
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	d.ID = chi.URLParam(r, "id")
	out, err := h.svc.UpdateDistrict(r.Context(), d)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteDistrict(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDistrict(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Promo codes ────────────────────────────────────────────────────────────

func (h *Handler) ListPromoCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.svc.PromoCodes(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

func (h *Handler) CreatePromoCode(w http.ResponseWriter, r *http.Request) {
	var p backend.PromoCode
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	out, err := h.svc.CreatePromoCode(r.Context(), p)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) UpdatePromoCode(w http.ResponseWriter, r *http.Request) {
	var p backend.PromoCode
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	p.ID = chi.URLParam(r, "id")
	out, err := h.svc.UpdatePromoCode(r.Context(), p)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeletePromoCode(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePromoCode(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Orders ─────────────────────────────────────────────────────────────────

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "status is required")
		return
	}
	order, err := h.svc.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ── Response helpers ───────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// writeBackendError maps client errors onto the proxy response: backend HTTP
// statuses pass through, transport failures become 502.
func writeBackendError(w http.ResponseWriter, err error) {
	var httpErr *backend.HTTPError
	if errors.As(err, &httpErr) {
		writeError(w, httpErr.Status, "backend_error", httpErr.Detail)
		return
	}
	writeError(w, http.StatusBadGateway, "backend_unreachable", err.Error())
}
