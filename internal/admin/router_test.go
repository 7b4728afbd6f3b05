package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/seafood-miniapp/internal/backend"
)

type fakeService struct {
	categoriesFn        func(ctx context.Context) ([]backend.Category, error)
	updateCategoryFn    func(ctx context.Context, cat backend.Category) (backend.Category, error)
	ordersFn            func(ctx context.Context) ([]backend.Order, error)
	updateOrderStatusFn func(ctx context.Context, orderID, status string) (backend.Order, error)
}

func (f *fakeService) Categories(ctx context.Context) ([]backend.Category, error) {
	if f.categoriesFn != nil {
		return f.categoriesFn(ctx)
	}
	return nil, nil
}

func (f *fakeService) CreateCategory(_ context.Context, cat backend.Category) (backend.Category, error) {
	return cat, nil
}

func (f *fakeService) UpdateCategory(ctx context.Context, cat backend.Category) (backend.Category, error) {
	if f.updateCategoryFn != nil {
		return f.updateCategoryFn(ctx, cat)
	}
	return cat, nil
}

func (f *fakeService) DeleteCategory(context.Context, string) error { return nil }

func (f *fakeService) CategoryProducts(context.Context, string) ([]backend.Product, error) {
	return nil, nil
}
func (f *fakeService) Product(context.Context, string) (backend.Product, error) {
	return backend.Product{}, nil
}
func (f *fakeService) CreateProduct(_ context.Context, p backend.Product) (backend.Product, error) {
	return p, nil
}
func (f *fakeService) UpdateProduct(_ context.Context, p backend.Product) (backend.Product, error) {
	return p, nil
}
func (f *fakeService) DeleteProduct(context.Context, string) error { return nil }

func (f *fakeService) ProductPackages(context.Context, string) ([]backend.Package, error) {
	return nil, nil
}
func (f *fakeService) CreatePackage(_ context.Context, p backend.Package) (backend.Package, error) {
	return p, nil
}
func (f *fakeService) UpdatePackage(_ context.Context, p backend.Package) (backend.Package, error) {
	return p, nil
}
func (f *fakeService) DeletePackage(context.Context, string) error { return nil }

func (f *fakeService) Districts(context.Context) ([]backend.District, error) { return nil, nil }
func (f *fakeService) CreateDistrict(_ context.Context, d backend.District) (backend.District, error) {
	return d, nil
}
func (f *fakeService) UpdateDistrict(_ context.Context, d backend.District) (backend.District, error) {
	return d, nil
}
func (f *fakeService) DeleteDistrict(context.Context, string) error { return nil }

func (f *fakeService) PromoCodes(context.Context) ([]backend.PromoCode, error) { return nil, nil }
func (f *fakeService) CreatePromoCode(_ context.Context, p backend.PromoCode) (backend.PromoCode, error) {
	return p, nil
}
func (f *fakeService) UpdatePromoCode(_ context.Context, p backend.PromoCode) (backend.PromoCode, error) {
	return p, nil
}
func (f *fakeService) DeletePromoCode(context.Context, string) error { return nil }

func (f *fakeService) Orders(ctx context.Context) ([]backend.Order, error) {
	if f.ordersFn != nil {
		return f.ordersFn(ctx)
	}
	return nil, nil
}
func (f *fakeService) Order(context.Context, string) (backend.Order, error) {
	return backend.Order{}, nil
}
func (f *fakeService) UpdateOrderStatus(ctx context.Context, orderID, status string) (backend.Order, error) {
	if f.updateOrderStatusFn != nil {
		return f.updateOrderStatusFn(ctx, orderID, status)
	}
	return backend.Order{ID: orderID, Status: status}, nil
}

const testToken = "sekret"

func newTestRouter(svc *fakeService) http.Handler {
	if svc == nil {
		svc = &fakeService{}
	}
	return NewRouter(NewHandler(svc, nil), testToken)
}

func doReq(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRejectsMissingAndWrongToken(t *testing.T) {
	h := newTestRouter(nil)

	rec := doReq(t, h, http.MethodGet, "/categories/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doReq(t, h, http.MethodGet, "/categories/", "nope", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unauthorized", resp.Error)
}

func TestAuthAcceptsConfiguredToken(t *testing.T) {
	h := newTestRouter(&fakeService{
		categoriesFn: func(context.Context) ([]backend.Category, error) {
			return []backend.Category{{ID: "fish", Name: "Fish"}}, nil
		},
	})

	rec := doReq(t, h, http.MethodGet, "/categories/", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cats []backend.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	require.Len(t, cats, 1)
	assert.Equal(t, "fish", cats[0].ID)
}

func TestEmptyTokenDisablesShell(t *testing.T) {
	h := NewRouter(NewHandler(&fakeService{}, nil), "")
	rec := doReq(t, h, http.MethodGet, "/categories/", "anything", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthzIsPublic(t *testing.T) {
	h := newTestRouter(nil)
	rec := doReq(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateCategoryTakesIDFromPath(t *testing.T) {
	var got backend.Category
	h := newTestRouter(&fakeService{
		updateCategoryFn: func(_ context.Context, cat backend.Category) (backend.Category, error) {
			got = cat
			return cat, nil
		},
	})

	rec := doReq(t, h, http.MethodPut, "/categories/fish", testToken, backend.Category{Name: "Fresh fish"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fish", got.ID)
	assert.Equal(t, "Fresh fish", got.Name)
}

func TestUpdateOrderStatusValidation(t *testing.T) {
	h := newTestRouter(nil)

	rec := doReq(t, h, http.MethodPut, "/orders/o1/status", testToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doReq(t, h, http.MethodPut, "/orders/o1/status", testToken, map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusOK, rec.Code)

	var order backend.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, "delivered", order.Status)
}

func TestBackendErrorsPassThrough(t *testing.T) {
	h := newTestRouter(&fakeService{
		ordersFn: func(context.Context) ([]backend.Order, error) {
			return nil, &backend.HTTPError{Status: http.StatusNotFound, Detail: "no such shop"}
		},
	})

	rec := doReq(t, h, http.MethodGet, "/orders/", testToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "backend_error", resp.Error)
	assert.Equal(t, "no such shop", resp.Message)
}

func TestTransportFailureBecomesBadGateway(t *testing.T) {
	h := newTestRouter(&fakeService{
		ordersFn: func(ctx context.Context) ([]backend.Order, error) {
			return nil, &backend.NetworkError{URL: "http://backend", Err: context.DeadlineExceeded}
		},
	})

	rec := doReq(t, h, http.MethodGet, "/orders/", testToken, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
