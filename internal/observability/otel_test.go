package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/logger"
)

func TestInitOTelDisabledIsNoop(t *testing.T) {
	shutdown := InitOTel(context.Background(), logger.NewNop(), OtelConfig{Enabled: false})
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestClampRatio(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0, 0: 0, 0.25: 0.25, 1: 1, 3: 1} {
		if got := clampRatio(in); got != want {
			t.Errorf("clampRatio(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestTraceExporterPostsToCollectorURL(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cases := []struct {
		name     string
		endpoint string
		insecure bool
	}{
		{"base url", srv.URL, false},
		{"base url with slash", srv.URL + "/", false},
		{"full traces url", srv.URL + "/v1/traces", false},
		{"host and port", strings.TrimPrefix(srv.URL, "http://"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			exp, err := buildTraceExporter(ctx, tc.endpoint, tc.insecure, logger.NewNop())
			if err != nil {
				t.Fatalf("buildTraceExporter: %v", err)
			}
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
			_, span := tp.Tracer("test").Start(ctx, "request")
			span.End()
			if err := tp.Shutdown(ctx); err != nil {
				t.Fatalf("shutdown: %v", err)
			}

			mu.Lock()
			defer mu.Unlock()
			if len(paths) == 0 || paths[len(paths)-1] != "/v1/traces" {
				t.Fatalf("collector saw paths %v", paths)
			}
			paths = nil
		})
	}
}

func TestExporterOptionsRejectsBadURL(t *testing.T) {
	for _, endpoint := range []string{"http://", "ftp://collector:4318"} {
		if _, err := exporterOptions(endpoint, false); err == nil {
			t.Errorf("%q: expected error", endpoint)
		}
	}
}
