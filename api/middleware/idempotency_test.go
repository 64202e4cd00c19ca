package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

type countingHandler struct {
	calls  int
	status int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.status)
	_, _ = fmt.Fprintf(w, `{"call":%d,"echo":%q}`, h.calls, string(body))
}

func post(handler http.Handler, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(newFakeStore(), nil)(next)

	first := post(handler, "/api/v1/orders", "abc", `{"items":[]}`)
	second := post(handler, "/api/v1/orders", "abc", `{"items":[]}`)

	if next.calls != 1 {
		t.Fatalf("expected handler to run once, ran %d", next.calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical bodies, got %q and %q", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content type to be replayed")
	}
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(newFakeStore(), nil)(next)

	post(handler, "/api/v1/cart/checkout", "abc", `{"customerName":"A"}`)
	resp := post(handler, "/api/v1/cart/checkout", "abc", `{"customerName":"B"}`)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "IDEMPOTENCY_KEY_REUSED") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(newFakeStore(), nil)(next)

	post(handler, "/api/v1/orders", "", `{}`)
	post(handler, "/api/v1/orders", "", `{}`)
	if next.calls != 2 {
		t.Fatalf("expected both requests to run, ran %d", next.calls)
	}
}

func TestIdempotencyIgnoresUnlistedRoutes(t *testing.T) {
	next := &countingHandler{status: http.StatusOK}
	store := newFakeStore()
	handler := Idempotency(store, nil)(next)

	post(handler, "/api/v1/auth/login", "abc", `{}`)
	post(handler, "/api/v1/auth/login", "abc", `{}`)
	if next.calls != 2 || len(store.data) != 0 {
		t.Fatalf("expected unlisted route to bypass idempotency")
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	next := &countingHandler{status: http.StatusServiceUnavailable}
	store := newFakeStore()
	handler := Idempotency(store, nil)(next)

	post(handler, "/api/v1/orders", "abc", `{}`)
	post(handler, "/api/v1/orders", "abc", `{}`)
	if next.calls != 2 {
		t.Fatalf("expected retry after server error, ran %d", next.calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("server errors must not be stored")
	}
}

func TestIdempotencyMatchesStatusRoute(t *testing.T) {
	next := &countingHandler{status: http.StatusOK}
	handler := Idempotency(newFakeStore(), nil)(next)

	path := "/api/v1/admin/orders/6f1c2a9e-9f55-4d4b-8f55-4f4c5f0f6a11/status"
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"status":"SHIPPED"}`))
		req.Header.Set("Idempotency-Key", "k1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if next.calls != 1 {
		t.Fatalf("expected status update to be deduplicated, ran %d", next.calls)
	}
}
