package runner

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newStatusServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"ERROR"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}
