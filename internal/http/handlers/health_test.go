package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/worldofhackaton/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		deps       map[string]handlers.Pinger
		wantStatus int
	}{
		{"no_deps", nil, http.StatusOK},
		{"all_up", map[string]handlers.Pinger{
			"postgres": func(ctx context.Context) error { return nil },
		}, http.StatusOK},
		{"one_down", map[string]handlers.Pinger{
			"postgres": func(ctx context.Context) error { return nil },
			"redis":    func(ctx context.Context) error { return errors.New("dial tcp: refused") },
		}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.deps)
			r := gin.New()
			r.GET("/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d, body=%s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}
