// Package backend is the typed client for the remote seafood-store REST API.
// It is the only place that talks HTTP to the backend: it attaches auth,
// normalizes transport and HTTP faults into NetworkError/HTTPError, reports
// failures best-effort to the admin notification endpoint, and caches the
// read-mostly catalog responses with a fixed TTL.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const basePath = "/api/v1"

// TokenSource supplies the Authorization header parts for a request, or
// ok=false when the caller has no credentials — the request then proceeds
// without the header and the server decides.
type TokenSource func() (scheme, token string, ok bool)

// NoAuth never supplies credentials.
func NoAuth() (string, string, bool) { return "", "", false }

// StaticBearer returns a TokenSource carrying a fixed opaque token, used by
// the admin shell.
func StaticBearer(token string) TokenSource {
	return func() (string, string, bool) {
		if token == "" {
			return "", "", false
		}
		return "Bearer", token, true
	}
}

// Client issues typed calls against the backend.
type Client struct {
	base  string
	hc    *http.Client
	auth  TokenSource
	cache *ttlCache
	rep   *reporter
	log   *slog.Logger
}

// NewClient builds a client for the API at baseURL (without the /api/v1
// prefix). userID, when non-nil, tags error reports with the current
// shopper; auth may be NoAuth.
func NewClient(baseURL string, auth TokenSource, userID func() string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if auth == nil {
		auth = NoAuth
	}
	if userID == nil {
		userID = func() string { return "" }
	}
	hc := &http.Client{}
	base := strings.TrimRight(baseURL, "/") + basePath
	return &Client{
		base:  base,
		hc:    hc,
		auth:  auth,
		cache: newTTLCache(cacheTTL),
		rep: &reporter{
			base:      base,
			hc:        hc,
			userID:    userID,
			userAgent: "seafood-miniapp-client/1.0",
			log:       log,
		},
		log: log,
	}
}

// do runs one request/response cycle. Every failure mode collapses into the
// two error kinds the callers handle: *NetworkError (transport, timeout,
// undecodable success body) and *HTTPError (non-2xx).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	url := c.base + path
	requestID := uuid.NewString()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: marshal %s body: %w", path, err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return fmt.Errorf("backend: build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if scheme, token, ok := c.auth(); ok {
		req.Header.Set("Authorization", scheme+" "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		nerr := &NetworkError{URL: url, Err: err}
		c.rep.report("NETWORK_ERROR", fmt.Sprintf("%s: %v", path, err), url, map[string]any{
			"request_id": requestID,
		})
		return nerr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := &HTTPError{Status: resp.StatusCode, Body: raw, Detail: extractDetail(raw)}
		c.rep.report("API_ERROR", fmt.Sprintf("%s: %s", path, herr.Error()), url, map[string]any{
			"status":     resp.StatusCode,
			"request_id": requestID,
		})
		return herr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &NetworkError{URL: url, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// cached serves key from the TTL cache or fetches path and fills it.
// Methods cannot be generic, hence the free function.
func cached[T any](ctx context.Context, c *Client, key, path string) (T, error) {
	if v, ok := c.cache.get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	var out T
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		var zero T
		return zero, err
	}
	c.cache.set(key, out)
	return out, nil
}

// ── Catalog (read-mostly, cached) ──────────────────────────────────────────

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return cached[[]Category](ctx, c, "categories", "/categories/")
}

func (c *Client) CategoryProducts(ctx context.Context, categoryID string) ([]Product, error) {
	key := "category_products_" + categoryID
	return cached[[]Product](ctx, c, key, "/categories/"+categoryID+"/products")
}

func (c *Client) Product(ctx context.Context, productID string) (Product, error) {
	return cached[Product](ctx, c, "product_"+productID, "/products/"+productID)
}

func (c *Client) ProductPackages(ctx context.Context, productID string) ([]Package, error) {
	key := "product_packages_" + productID
	return cached[[]Package](ctx, c, key, "/packages/product/"+productID)
}

func (c *Client) Districts(ctx context.Context) ([]District, error) {
	return cached[[]District](ctx, c, "districts", "/districts/")
}

// ClearCache drops all cached catalog responses.
func (c *Client) ClearCache() {
	c.cache.clear()
}

// ── Promo and orders (never cached) ────────────────────────────────────────

func (c *Client) ValidatePromo(ctx context.Context, code string) (PromoResult, error) {
	var out PromoResult
	err := c.do(ctx, http.MethodPost, "/promo/validate", map[string]string{"code": code}, &out)
	return out, err
}

func (c *Client) CreateOrder(ctx context.Context, draft OrderDraft) (OrderConfirmation, error) {
	var out OrderConfirmation
	err := c.do(ctx, http.MethodPost, "/orders/", draft, &out)
	return out, err
}

func (c *Client) UserOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	err := c.do(ctx, http.MethodGet, "/orders/", nil, &out)
	return out, err
}

func (c *Client) Order(ctx context.Context, orderID string) (Order, error) {
	var out Order
	err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, &out)
	return out, err
}

// ── Admin CRUD (exercised by the admin shell only) ─────────────────────────
//
// Catalog mutations invalidate the local cache so the admin sees their own
// writes on the next read.

func (c *Client) CreateCategory(ctx context.Context, cat Category) (Category, error) {
	var out Category
	err := c.do(ctx, http.MethodPost, "/categories/", cat, &out)
	c.cache.clear()
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, cat Category) (Category, error) {
	var out Category
	err := c.do(ctx, http.MethodPut, "/categories/"+cat.ID, cat, &out)
	c.cache.clear()
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/categories/"+id, nil, nil)
	c.cache.clear()
	return err
}

func (c *Client) CreateProduct(ctx context.Context, p Product) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodPost, "/products/", p, &out)
	c.cache.clear()
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodPut, "/products/"+p.ID, p, &out)
	c.cache.clear()
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/products/"+id, nil, nil)
	c.cache.clear()
	return err
}

func (c *Client) CreatePackage(ctx context.Context, p Package) (Package, error) {
	var out Package
	err := c.do(ctx, http.MethodPost, "/packages/", p, &out)
	c.cache.clear()
	return out, err
}

func (c *Client) UpdatePackage(ctx context.Context, p Package) (Package, error) {
	var out Package
	err := c.do(ctx, http.MethodPut, "/packages/"+p.ID, p, &out)
	c.cache.clear()
	return out, err
}

func (c *Client) DeletePackage(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/packages/"+id, nil, nil)
	c.cache.clear()
	return err
}

func (c *Client) CreateDistrict(ctx context.Context, d District) (District, error) {
	var out District
	err := c.do(ctx, http.MethodPost, "/districts/", d, &out)
	c.cache.clear()
	return out, err
}

func (c *Client) UpdateDistrict(ctx context.Context, d District) (District, error) {
	var out District
	err := c.do(ctx, http.MethodPut, "/districts/"+d.ID, d, &out)
	c.cache.clear()
	return out, err
}

func (c *Client) DeleteDistrict(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/districts/"+id, nil, nil)
	c.cache.clear()
	return err
}

func (c *Client) PromoCodes(ctx context.Context) ([]PromoCode, error) {
	var out []PromoCode
	err := c.do(ctx, http.MethodGet, "/promo/", nil, &out)
	return out, err
}

func (c *Client) CreatePromoCode(ctx context.Context, p PromoCode) (PromoCode, error) {
	var out PromoCode
	err := c.do(ctx, http.MethodPost, "/promo/", p, &out)
	return out, err
}

func (c *Client) UpdatePromoCode(ctx context.Context, p PromoCode) (PromoCode, error) {
	var out PromoCode
	err := c.do(ctx, http.MethodPut, "/promo/"+p.ID, p, &out)
	return out, err
}

func (c *Client) DeletePromoCode(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/promo/"+id, nil, nil)
}

func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out []Order
	err := c.do(ctx, http.MethodGet, "/orders/all", nil, &out)
	return out, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) (Order, error) {
	var out Order
	err := c.do(ctx, http.MethodPut, "/orders/"+orderID+"/status", map[string]string{"status": status}, &out)
	return out, err
}
