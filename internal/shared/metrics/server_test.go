package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewWagers(reg).ObservePlaced("cross")

	tests := []struct {
		name   string
		health HealthFunc
		path   string
		want   int
		body   string
	}{
		{"healthy", func(context.Context) error { return nil }, "/healthz", http.StatusOK, "ok"},
		{"nil health", nil, "/healthz", http.StatusOK, "ok"},
		{"unhealthy", func(context.Context) error { return errors.New("redis down") }, "/healthz", http.StatusServiceUnavailable, "redis down"},
		{"metrics", nil, "/metrics", http.StatusOK, `wagers_placed_total{game_type="cross"} 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Handler(reg, tt.health).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Fatalf("body %q does not contain %q", rec.Body.String(), tt.body)
			}
		})
	}
}
