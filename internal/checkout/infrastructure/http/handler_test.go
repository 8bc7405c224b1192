package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/dmehra2102/agro-marketplace/internal/cart/application"
	carthttp "github.com/dmehra2102/agro-marketplace/internal/cart/infrastructure/http"
	catalogdomain "github.com/dmehra2102/agro-marketplace/internal/catalog/domain"
	"github.com/dmehra2102/agro-marketplace/internal/checkout/application"
	"github.com/dmehra2102/agro-marketplace/internal/identity"
	"github.com/dmehra2102/agro-marketplace/internal/identity/jwtauth"
	"github.com/dmehra2102/agro-marketplace/internal/storage/memory"
	"github.com/dmehra2102/agro-marketplace/pkg/idempotency"
)

type fakeRedis struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, exp time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = true
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.keys, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

type api struct {
	t      *testing.T
	srv    *httptest.Server
	tokens *jwtauth.Resolver
	store  *memory.Store
}

func newAPI(t *testing.T) *api {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	store.PutProduct(catalogdomain.Product{ID: "tomate", ProducerID: "finca-a", Name: "Tomate", Price: decimal.RequireFromString("2.50"), Stock: 10, Unit: "kg", Available: true})
	store.PutProduct(catalogdomain.Product{ID: "miel", ProducerID: "finca-b", Name: "Miel", Price: decimal.NewFromInt(8), Stock: 1, Unit: "frasco", Available: true})

	tokens := jwtauth.NewResolver("test-secret")
	idem := idempotency.NewStore(&fakeRedis{keys: map[string]bool{}}, time.Minute)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Middleware(log, tokens))
		carthttp.NewHandler(log, cartapp.NewService(log, store.Carts(), store.Catalog())).Register(r)
		NewHandler(log, application.NewService(log, store.Carts(), store.Catalog(), store.Committer())).
			Register(r, idempotency.Middleware(log, idem, "checkout"))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &api{t: t, srv: srv, tokens: tokens, store: store}
}

func (a *api) do(actor identity.Actor, method, path, body string, hdr ...string) (*http.Response, map[string]any) {
	a.t.Helper()
	tok, err := a.tokens.Issue(actor, time.Minute)
	require.NoError(a.t, err)
	req, err := http.NewRequest(method, a.srv.URL+path, strings.NewReader(body))
	require.NoError(a.t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func errCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestCartToCheckoutOverHTTP(t *testing.T) {
	a := newAPI(t)
	ana := identity.Consumer("ana")

	resp, body := a.do(ana, http.MethodPost, "/cart/items", `{"product_id":"tomate","quantity":4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "10", body["total"])

	resp, _ = a.do(ana, http.MethodPost, "/cart/items", `{"product_id":"miel","quantity":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = a.do(ana, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 5, body["item_count"])

	checkout := `{"delivery_address":"Vereda El Roble","payment_method":"contraentrega"}`
	resp, body = a.do(ana, http.MethodPost, "/checkout", checkout, idempotency.HeaderKey, "k-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, body["order_ids"], 2)

	resp, body = a.do(ana, http.MethodPost, "/checkout", checkout, idempotency.HeaderKey, "k-1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_REQUEST", errCode(body))

	resp, body = a.do(ana, http.MethodPost, "/checkout", checkout, idempotency.HeaderKey, "k-2")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EMPTY_CART", errCode(body))

	p, _ := a.store.Product("miel")
	assert.Zero(t, p.Stock)
	assert.Equal(t, 2, a.store.OrderCount())
}

func TestFailedCheckoutReleasesIdempotencyKey(t *testing.T) {
	a := newAPI(t)
	ana := identity.Consumer("ana")
	checkout := `{"delivery_address":"Calle 5","payment_method":"transferencia"}`

	resp, body := a.do(ana, http.MethodPost, "/checkout", checkout, idempotency.HeaderKey, "retry-me")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EMPTY_CART", errCode(body))

	resp, _ = a.do(ana, http.MethodPost, "/cart/items", `{"product_id":"miel","quantity":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.do(ana, http.MethodPost, "/checkout", checkout, idempotency.HeaderKey, "retry-me")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCheckoutErrorsOverHTTP(t *testing.T) {
	a := newAPI(t)
	ana := identity.Consumer("ana")

	resp, _ := a.do(ana, http.MethodPost, "/cart/items", `{"product_id":"miel","quantity":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	a.store.PutProduct(catalogdomain.Product{ID: "miel", ProducerID: "finca-b", Price: decimal.NewFromInt(8), Stock: 0, Available: true})

	resp, body := a.do(ana, http.MethodPost, "/checkout", `{"delivery_address":"x","payment_method":"y"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	e := body["error"].(map[string]any)
	assert.Equal(t, "INSUFFICIENT_STOCK", e["code"])
	assert.Equal(t, "miel", e["product_id"])
	assert.EqualValues(t, 0, e["available"])

	resp, body = a.do(identity.Producer("finca-a"), http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errCode(body))

	resp, body = a.do(ana, http.MethodPut, "/cart/items/tomate", `{"quantity":2}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "ITEM_NOT_FOUND", errCode(body))

	resp, body = a.do(ana, http.MethodPost, "/checkout", `{"delivery_address":"x"`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", errCode(body))
}
