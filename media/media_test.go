package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rubika_content_bot/config"
	"rubika_content_bot/localize"
)

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestResolveWithoutKeyReturnsPlaceholder(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {})

	r := NewResolver(config.Pexels{APIBase: srv.URL}, nil, fixedRand(0), nil)
	for _, cat := range []localize.Category{localize.Beach, localize.Default, ""} {
		assert.Equal(t, PlaceholderURL, r.Resolve(context.Background(), "anything", cat))
	}
	assert.Equal(t, int32(0), hits.Load(), "no request without an API key")
}

func TestResolvePicksLargestRendition(t *testing.T) {
	var gotAuth, gotQuery, gotPerPage, gotOrientation, gotPath string
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotPerPage = r.URL.Query().Get("per_page")
		gotOrientation = r.URL.Query().Get("orientation")
		_, _ = w.Write([]byte(`{"photos": [
			{"src": {"original": "", "large": "https://img/1-large.jpg", "medium": "https://img/1-medium.jpg"}},
			{"src": {"original": "https://img/2-original.jpg", "small": "https://img/2-small.jpg"}}
		]}`))
	})

	r := NewResolver(config.Pexels{APIBase: srv.URL, APIKey: "px-key"}, nil, fixedRand(0), nil)
	assert.Equal(t, "https://img/1-large.jpg", r.Resolve(context.Background(), "Hidden beaches", localize.Beach))
	assert.Equal(t, "px-key", gotAuth)
	assert.Equal(t, "/v1/search", gotPath)
	assert.Equal(t, "Hidden beaches beach", gotQuery)
	assert.Equal(t, "5", gotPerPage)
	assert.Equal(t, "landscape", gotOrientation)

	r = NewResolver(config.Pexels{APIBase: srv.URL, APIKey: "px-key"}, nil, fixedRand(1), nil)
	assert.Equal(t, "https://img/2-original.jpg", r.Resolve(context.Background(), "Hidden beaches", localize.Beach))
}

func TestResolveFailuresReturnSentinel(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) }},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"photos": [`)) }},
		{"empty results", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"photos": []}`)) }},
		{"no photos key", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"total_results": 0}`)) }},
		{"no renditions", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"photos": [{"src": {"tiny": "x"}}]}`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.handler)
			r := NewResolver(config.Pexels{APIBase: srv.URL, APIKey: "k"}, nil, fixedRand(0), nil)

			assert.NotPanics(t, func() {
				assert.Equal(t, "", r.Resolve(context.Background(), "q", localize.Default))
			})
			_, err := r.Search(context.Background(), "q")
			assert.True(t, errors.Is(err, ErrProviderUnavailable), "got %v", err)
		})
	}
}

func TestResolveTimeoutReturnsSentinel(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	client := &http.Client{Timeout: 50 * time.Millisecond}
	r := NewResolver(config.Pexels{APIBase: srv.URL, APIKey: "k"}, client, fixedRand(0), nil)

	assert.Equal(t, "", r.Resolve(context.Background(), "q", localize.Travel))
}

func TestResolveUnreachableProvider(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	r := NewResolver(config.Pexels{APIBase: base, APIKey: "k"}, nil, fixedRand(0), nil)
	assert.Equal(t, "", r.Resolve(context.Background(), "q", localize.Travel))
}

func TestBreakerStopsCallingFailingProvider(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	r := NewResolver(config.Pexels{APIBase: srv.URL, APIKey: "k"}, nil, fixedRand(0), nil)

	for i := 0; i < 6; i++ {
		assert.Equal(t, "", r.Resolve(context.Background(), "q", localize.Default))
	}
	assert.Equal(t, int32(3), hits.Load())

	_, err := r.Search(context.Background(), "q")
	assert.True(t, errors.Is(err, ErrProviderUnavailable))
}

func TestEmptyResultsDoNotOpenBreaker(t *testing.T) {
	srv, hits := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"photos": []}`))
	})
	r := NewResolver(config.Pexels{APIBase: srv.URL, APIKey: "k"}, nil, fixedRand(0), nil)

	for i := 0; i < 5; i++ {
		r.Resolve(context.Background(), "q", localize.Default)
	}
	assert.Equal(t, int32(5), hits.Load())
}

func TestPickPhoto(t *testing.T) {
	_, err := pickPhoto([]byte(`not json`), fixedRand(0))
	require.Error(t, err)

	u, err := pickPhoto([]byte(`{"photos":[{"src":{"medium":"m","small":"s"}}]}`), fixedRand(0))
	require.NoError(t, err)
	assert.Equal(t, "m", u)
}
