package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type idemRecord struct {
	status int
	body   string
}

// memIdem is an in-memory idempotency store keyed by actor|resource|key.
type memIdem struct {
	recs    map[string]idemRecord
	lookups int
	saves   int
}

func newMemIdem() *memIdem { return &memIdem{recs: map[string]idemRecord{}} }

func (m *memIdem) lookup(_ context.Context, actor, resource, key string, _ time.Time) (int, string, bool, error) {
	m.lookups++
	r, ok := m.recs[actor+"|"+resource+"|"+key]
	return r.status, r.body, ok, nil
}

func (m *memIdem) save(_ context.Context, actor, resource, key string, status int, body string) error {
	m.saves++
	m.recs[actor+"|"+resource+"|"+key] = idemRecord{status, body}
	return nil
}

func idemRouter(store *memIdem, status int, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Actor(), Idempotency(IdempotencyOptions{}, store.lookup, store.save))
	r.POST("/orders/:id/notify", func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"success": status == http.StatusOK, "n": *calls})
	})
	return r
}

func post(r http.Handler, path string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NoKeyIsPassThrough(t *testing.T) {
	store := newMemIdem()
	calls := 0
	r := idemRouter(store, http.StatusOK, &calls)

	post(r, "/orders/o1/notify", nil)
	post(r, "/orders/o1/notify", nil)
	if calls != 2 || store.lookups != 0 || store.saves != 0 {
		t.Fatalf("calls=%d lookups=%d saves=%d", calls, store.lookups, store.saves)
	}
}

func TestIdempotency_ReplaysStoredSuccess(t *testing.T) {
	store := newMemIdem()
	calls := 0
	r := idemRouter(store, http.StatusOK, &calls)
	h := map[string]string{HeaderIdempotencyKey: "k-1", HeaderActorID: "alice"}

	first := post(r, "/orders/o1/notify", h)
	second := post(r, "/orders/o1/notify", h)

	if calls != 1 {
		t.Fatalf("handler should run once, ran %d times", calls)
	}
	if second.Header().Get(HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay header missing")
	}
	if second.Code != http.StatusOK || second.Body.String() != first.Body.String() {
		t.Fatalf("replay mismatch: %d %q vs %q", second.Code, second.Body.String(), first.Body.String())
	}
}

func TestIdempotency_ScopesByActorAndPath(t *testing.T) {
	store := newMemIdem()
	calls := 0
	r := idemRouter(store, http.StatusOK, &calls)

	post(r, "/orders/o1/notify", map[string]string{HeaderIdempotencyKey: "k", HeaderActorID: "alice"})
	post(r, "/orders/o2/notify", map[string]string{HeaderIdempotencyKey: "k", HeaderActorID: "alice"})
	post(r, "/orders/o1/notify", map[string]string{HeaderIdempotencyKey: "k", HeaderActorID: "bob"})
	if calls != 3 {
		t.Fatalf("distinct scopes must not replay each other, calls=%d", calls)
	}
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	store := newMemIdem()
	calls := 0
	r := idemRouter(store, http.StatusBadGateway, &calls)
	h := map[string]string{HeaderIdempotencyKey: "k"}

	post(r, "/orders/o1/notify", h)
	post(r, "/orders/o1/notify", h)
	if calls != 2 || store.saves != 0 {
		t.Fatalf("failed deliveries must stay retryable: calls=%d saves=%d", calls, store.saves)
	}
}

func TestIdempotency_RejectsBadKeys(t *testing.T) {
	store := newMemIdem()
	calls := 0
	r := idemRouter(store, http.StatusOK, &calls)

	for _, k := range []string{"has space", "semi;colon", strings.Repeat("a", 201)} {
		w := post(r, "/orders/o1/notify", map[string]string{HeaderIdempotencyKey: k})
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q: got %d %s", k, w.Code, w.Body.String())
		}
	}
	if calls != 0 {
		t.Fatalf("handler must not run for invalid keys")
	}
}

func TestIdempotency_LookupErrorFallsThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calls := 0
	r := gin.New()
	failing := func(context.Context, string, string, string, time.Time) (int, string, bool, error) {
		return 0, "", false, errors.New("db down")
	}
	r.Use(Idempotency(IdempotencyOptions{}, failing, nil))
	r.POST("/x", func(c *gin.Context) {
		if k, ok := GetIdempotencyKey(c); !ok || k != "abc" {
			t.Errorf("key not stashed: %q", k)
		}
		calls++
		c.Status(http.StatusNoContent)
	})

	w := post(r, "/x", map[string]string{HeaderIdempotencyKey: "abc"})
	if w.Code != http.StatusNoContent || calls != 1 {
		t.Fatalf("got %d, calls=%d", w.Code, calls)
	}
}

func TestIdempotency_IgnoresSafeMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newMemIdem()
	r := gin.New()
	r.Use(Idempotency(IdempotencyOptions{}, store.lookup, store.save))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderIdempotencyKey, "not valid!")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || store.lookups != 0 {
		t.Fatalf("GET should bypass idempotency, got %d", w.Code)
	}
}
