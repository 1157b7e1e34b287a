package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"quizharvester/services/ratelimit"
)

func testLimiter() *ratelimit.Limiter {
	return ratelimit.NewLimiter(60000)
}

func TestCategoriesDeduplicated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/quizzes/history/">History</a>
			<a href="/quizzes/history/">History again</a>
			<a href="/quizzes/science/">Science</a>
			<a href="/other/">Not a category</a>
		</body></html>`))
	}))
	defer server.Close()

	c := New(server.URL, "/quizzes/", testLimiter())
	categories, err := c.Categories(context.Background())
	assert.NoError(t, err)
	assert.Len(t, categories, 2)
	assert.Equal(t, server.URL+"/quizzes/history/", categories[0])
	assert.Equal(t, server.URL+"/quizzes/science/", categories[1])
}

func TestQuizzesResolvesRelativeLinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/quiz/history/ancient-rome-1234.html">Ancient Rome</a>
			<a href="https://elsewhere.example.com/quiz/external-99.html">External</a>
			<a href="#">Anchor</a>
		</body></html>`))
	}))
	defer server.Close()

	c := New(server.URL, "/quizzes/", testLimiter())
	quizzes, err := c.Quizzes(context.Background(), server.URL+"/quizzes/history/")
	assert.NoError(t, err)
	assert.Len(t, quizzes, 2)
	assert.Contains(t, quizzes, server.URL+"/quiz/history/ancient-rome-1234.html")
	assert.Contains(t, quizzes, "https://elsewhere.example.com/quiz/external-99.html")
}

func TestCategoriesFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "/quizzes/", testLimiter())
	_, err := c.Categories(context.Background())
	assert.Error(t, err)
}

func TestCategoriesAcquiresRateLimiter(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`<html><body><a href="/quizzes/history/">History</a></body></html>`))
	}))
	defer server.Close()

	// One request per minute; the free first slot is consumed up front, so
	// the listing fetch must wait on the limiter and sees the cancelled ctx.
	limiter := ratelimit.NewLimiter(1)
	assert.NoError(t, limiter.Acquire(context.Background()))

	c := New(server.URL, "/quizzes/", limiter)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Categories(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, hits)
}
