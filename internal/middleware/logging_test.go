package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		handler := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})))

		req := httptest.NewRequest("GET", "/api/household", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		line := buf.String()
		for _, want := range []string{tt.level, "method=GET", "path=/api/household", "request_id="} {
			if !strings.Contains(line, want) {
				t.Errorf("status %d: log %q missing %q", tt.status, line, want)
			}
		}
	}
}
