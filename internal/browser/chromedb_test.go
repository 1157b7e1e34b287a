package browser

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"quizharvester/services/cache"
)

// fakeCache implements cache.CacheService in memory
type fakeCache struct {
	values map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string][]byte)}
}

func (f *fakeCache) Get(key string) ([]byte, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (f *fakeCache) Set(key string, value []byte, _ time.Duration) error {
	f.values[key] = value
	return nil
}

func (f *fakeCache) Delete(key string) error {
	delete(f.values, key)
	return nil
}

func newTestFactory(t *testing.T, handler http.HandlerFunc, cacheSvc cache.CacheService) (*ChromeDBFactory, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	factory := NewChromeDBFactory(ChromeDBConfig{
		Addr:      server.URL,
		CacheSvc:  cacheSvc,
		BlockKey:  "quiz_rate_limited",
		BlockTime: time.Second,
	})
	return factory, server
}

func TestNavigateSendsSessionAndURL(t *testing.T) {
	var gotBody string
	factory, _ := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/function", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"ok":true,"url":"https://example.com/quiz","status":200}`))
	}, nil)

	session := factory.NewSession()
	err := session.Navigate(context.Background(), "https://example.com/quiz")
	assert.NoError(t, err)

	assert.Equal(t, "https://example.com/quiz", gjson.Get(gotBody, "context.url").String())
	assert.NotEmpty(t, gjson.Get(gotBody, "context.sessionId").String())
	assert.Contains(t, gjson.Get(gotBody, "code").String(), "page.goto")
}

func TestNavigateTimeoutClassified(t *testing.T) {
	factory, _ := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Navigation timeout of 45000 ms exceeded"}`))
	}, nil)

	session := factory.NewSession()
	err := session.Navigate(context.Background(), "https://example.com/slow")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestNavigateBlockedByCache(t *testing.T) {
	cacheSvc := newFakeCache()
	cacheSvc.Set("quiz_rate_limited", []byte("500"), time.Second)

	factory, _ := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("blocked navigation must not reach the driver")
		}
	}, cacheSvc)

	session := factory.NewSession()
	err := session.Navigate(context.Background(), "https://example.com/quiz")
	assert.ErrorIs(t, err, ErrDriver)
}

func TestRateLimitSetsBlockKey(t *testing.T) {
	cacheSvc := newFakeCache()
	factory, _ := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, cacheSvc)

	session := factory.NewSession()
	err := session.Navigate(context.Background(), "https://example.com/quiz")
	assert.Error(t, err)

	_, err = cacheSvc.Get("quiz_rate_limited")
	assert.NoError(t, err)
}

func TestContentPlucksEnvelopeVariants(t *testing.T) {
	bodies := []string{
		`{"value":"<html><body>direct</body></html>"}`,
		`{"data":{"content":"<html><body>nested</body></html>"}}`,
		`{"content":"<html><body>flat</body></html>"}`,
	}
	wants := []string{"direct", "nested", "flat"}

	for i, body := range bodies {
		respBody := body
		factory, _ := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(respBody))
		}, nil)

		session := factory.NewSession()
		html, err := session.Content(context.Background())
		assert.NoError(t, err)
		assert.Contains(t, html, wants[i])
	}
}

func TestContentRejectsNonHTML(t *testing.T) {
	factory, _ := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":"not a page"}`))
	}, nil)

	_, err := factory.NewSession().Content(context.Background())
	assert.ErrorIs(t, err, ErrDriver)
}

func TestClickReportsMissingElement(t *testing.T) {
	factory, _ := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"found":false}`))
	}, nil)

	found, err := factory.NewSession().Click(context.Background(), "input[name='q1']", 0)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestCheckedState(t *testing.T) {
	factory, _ := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":true}`))
	}, nil)

	checked, err := factory.NewSession().Checked(context.Background(), "input[name='q1']", 0)
	assert.NoError(t, err)
	assert.True(t, checked)
}

func TestWaitNetworkIdleTimeout(t *testing.T) {
	factory, _ := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"waiting for network idle timed out"}`))
	}, nil)

	err := factory.NewSession().WaitNetworkIdle(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestCloseIsIdempotent(t *testing.T) {
	calls := 0
	factory, _ := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"ok":true}`))
	}, nil)

	session := factory.NewSession()
	assert.NoError(t, session.Close(context.Background()))
	assert.NoError(t, session.Close(context.Background()))
	assert.Equal(t, 1, calls)
}
