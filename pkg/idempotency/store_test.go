package idempotency

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/agro-marketplace/internal/identity"
)

type fakeRedis struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeRedis() *fakeRedis { return &fakeRedis{keys: map[string]bool{}} }

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
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

func TestSeen(t *testing.T) {
	s := NewStore(newFakeRedis(), time.Minute)
	ctx := context.Background()
	key := s.Key("order.events", 0, 42)
	assert.Equal(t, "idem:order.events:0:42", key)

	seen, err := s.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = s.Seen(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, s.Release(ctx, key))
	seen, err = s.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMiddleware(t *testing.T) {
	s := NewStore(newFakeRedis(), time.Minute)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	status := http.StatusCreated
	h := Middleware(log, s, "checkout")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	do := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req = req.WithContext(identity.WithActor(req.Context(), identity.Consumer("c-1")))
		if key != "" {
			req.Header.Set(HeaderKey, key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, do("k1"))
	assert.Equal(t, http.StatusConflict, do("k1"))
	assert.Equal(t, http.StatusCreated, do(""))
	assert.Equal(t, http.StatusCreated, do(""))

	status = http.StatusConflict
	assert.Equal(t, http.StatusConflict, do("k2"))
	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, do("k2"), "failed attempt must release the key")
}
