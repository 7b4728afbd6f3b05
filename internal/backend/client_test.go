package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHeaderAttachedWhenTokenAvailable(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewEncoder(w).Encode([]Category{})
	}))
	defer srv.Close()

	auth := func() (string, string, bool) { return "tma", "signed-init-data", true }
	c := NewClient(srv.URL, auth, nil, nil)

	_, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tma signed-init-data", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestNoAuthOmitsHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]District{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NoAuth, nil, nil)
	_, err := c.Districts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestHTTPErrorCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == basePath+errorsReportPath {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"promo code expired"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NoAuth, nil, nil)
	_, err := c.ValidatePromo(context.Background(), "OLD")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
	assert.Equal(t, "promo code expired", httpErr.Detail)
}

func TestDetailFallsBackToMessageShape(t *testing.T) {
	assert.Equal(t, "boom", extractDetail([]byte(`{"message":"boom"}`)))
	assert.Equal(t, "first", extractDetail([]byte(`{"detail":"first","message":"second"}`)))
	assert.Empty(t, extractDetail([]byte(`not json`)))
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listens anymore

	c := NewClient(srv.URL, NoAuth, nil, nil)
	_, err := c.Categories(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestDeadlineSurfacesAsNetworkError(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, NoAuth, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.CreateOrder(ctx, OrderDraft{})
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCatalogReadsAreCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode([]Category{{ID: "fish"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NoAuth, nil, nil)
	ctx := context.Background()

	first, err := c.Categories(ctx)
	require.NoError(t, err)
	second, err := c.Categories(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOrderCreationNeverCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(OrderConfirmation{OrderID: "x"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NoAuth, nil, nil)
	ctx := context.Background()
	_, err := c.CreateOrder(ctx, OrderDraft{})
	require.NoError(t, err)
	_, err = c.CreateOrder(ctx, OrderDraft{})
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
}

func TestCacheExpiryRefetches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode([]District{{ID: "d1"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NoAuth, nil, nil)
	now := time.Now()
	c.cache.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := c.Districts(ctx)
	require.NoError(t, err)

	now = now.Add(cacheTTL + time.Second)
	_, err = c.Districts(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
}

func TestMutationsInvalidateCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			hits.Add(1)
			_ = json.NewEncoder(w).Encode([]Category{})
		default:
			_ = json.NewEncoder(w).Encode(Category{ID: "new"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NoAuth, nil, nil)
	ctx := context.Background()

	_, err := c.Categories(ctx)
	require.NoError(t, err)
	_, err = c.CreateCategory(ctx, Category{Name: "Crab"})
	require.NoError(t, err)
	_, err = c.Categories(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load(), "write invalidated the cached read")
}

func TestAPIErrorsAreReported(t *testing.T) {
	reported := make(chan errorReport, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == basePath+errorsReportPath {
			var rep errorReport
			_ = json.NewDecoder(r.Body).Decode(&rep)
			reported <- rep
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"backend down"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NoAuth, func() string { return "7" }, nil)
	_, err := c.Product(context.Background(), "p1")
	require.Error(t, err)

	select {
	case rep := <-reported:
		assert.Equal(t, "API_ERROR", rep.ErrorType)
		assert.Equal(t, "7", rep.UserID)
		assert.Contains(t, rep.Message, "/products/p1")
	case <-time.After(2 * time.Second):
		t.Fatal("no error report arrived")
	}
}
