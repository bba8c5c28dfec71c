package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"OxyGent-Console/internal/events"
)

func TestCollectorRendersCumulativeBuckets(t *testing.T) {
	c := New()
	c.ObserveHTTPRequest("GET /api/v1/agents/", "GET", 200, 3*time.Millisecond)
	c.ObserveHTTPRequest("GET /api/v1/agents/", "GET", 200, 200*time.Millisecond)
	c.ObserveHTTPRequest("GET /api/v1/agents/", "GET", 500, 20*time.Second)

	out := c.render()
	for _, want := range []string{
		`oxygent_http_requests_total{handler="GET /api/v1/agents/",method="GET",code="200"} 2`,
		`oxygent_http_requests_total{handler="GET /api/v1/agents/",method="GET",code="500"} 1`,
		`oxygent_http_request_errors_total{handler="GET /api/v1/agents/",method="GET"} 1`,
		`oxygent_http_request_duration_seconds_bucket{handler="GET /api/v1/agents/",method="GET",le="0.005"} 1`,
		`oxygent_http_request_duration_seconds_bucket{handler="GET /api/v1/agents/",method="GET",le="0.25"} 2`,
		`oxygent_http_request_duration_seconds_bucket{handler="GET /api/v1/agents/",method="GET",le="10"} 2`,
		`oxygent_http_request_duration_seconds_bucket{handler="GET /api/v1/agents/",method="GET",le="+Inf"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	c := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := c.Middleware(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	out := c.render()
	if !strings.Contains(out, `handler="GET /items/{id}",method="GET",code="404"} 1`) {
		t.Fatalf("route pattern not recorded:\n%s", out)
	}
	if !strings.Contains(out, `handler="unmatched",method="GET",code="404"} 1`) {
		t.Fatalf("unmatched route not recorded:\n%s", out)
	}
}

func TestEventHandlerCountsEvents(t *testing.T) {
	c := New()
	h := c.EventHandler()
	_ = h(context.Background(), events.New("agents", events.ActionCreated, "1", "A1"))
	_ = h(context.Background(), events.New("agents", events.ActionCreated, "2", "A2"))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `oxygent_resource_events_total{kind="agents",action="created"} 2`) {
		t.Fatalf("unexpected output:\n%s", rec.Body.String())
	}
}
