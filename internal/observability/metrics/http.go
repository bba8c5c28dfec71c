package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type requestKey struct {
	handler string
	method  string
	code    string
}

type routeKey struct {
	handler string
	method  string
}

type eventKey struct {
	kind   string
	action string
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

// Collector 以 Prometheus 文本格式汇总 HTTP 请求与资源事件指标。
type Collector struct {
	mu       sync.Mutex
	requests map[requestKey]uint64
	errors   map[routeKey]uint64
	latency  map[routeKey]*histogram
	events   map[eventKey]uint64
}

// New 创建空的 Collector。
func New() *Collector {
	return &Collector{
		requests: make(map[requestKey]uint64),
		errors:   make(map[routeKey]uint64),
		latency:  make(map[routeKey]*histogram),
		events:   make(map[eventKey]uint64),
	}
}

// ObserveHTTPRequest records metrics about an HTTP request lifecycle.
func (c *Collector) ObserveHTTPRequest(handler, method string, status int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests[requestKey{handler: handler, method: method, code: strconv.Itoa(status)}]++
	key := routeKey{handler: handler, method: method}
	if status >= 500 {
		c.errors[key]++
	}
	hist := c.latency[key]
	if hist == nil {
		hist = newHistogram()
		c.latency[key] = hist
	}
	hist.observe(duration.Seconds())
}

// ObserveEvent counts a resource lifecycle event.
func (c *Collector) ObserveEvent(kind, action string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[eventKey{kind: kind, action: action}]++
}

func newHistogram() *histogram {
	buckets := []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// observe 只累加第一个命中的桶，渲染时再求累计值。超出最后一个桶的样本只体现在 +Inf 中。
func (h *histogram) observe(value float64) {
	h.count++
	h.sum += value
	for idx, bound := range h.buckets {
		if value <= bound {
			h.counts[idx]++
			return
		}
	}
}

// Handler exposes the metrics in Prometheus text exposition format.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = fmt.Fprint(w, c.render())
	})
}

func (c *Collector) render() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.Grow(2048)

	b.WriteString("# HELP oxygent_http_requests_total Total number of HTTP requests processed.\n")
	b.WriteString("# TYPE oxygent_http_requests_total counter\n")
	reqKeys := make([]requestKey, 0, len(c.requests))
	for key := range c.requests {
		reqKeys = append(reqKeys, key)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		a, z := reqKeys[i], reqKeys[j]
		if a.handler != z.handler {
			return a.handler < z.handler
		}
		if a.method != z.method {
			return a.method < z.method
		}
		return a.code < z.code
	})
	for _, key := range reqKeys {
		fmt.Fprintf(&b, "oxygent_http_requests_total{handler=\"%s\",method=\"%s\",code=\"%s\"} %d\n",
			escape(key.handler), escape(key.method), key.code, c.requests[key])
	}

	b.WriteString("# HELP oxygent_http_request_errors_total Total number of HTTP requests that resulted in a server error.\n")
	b.WriteString("# TYPE oxygent_http_request_errors_total counter\n")
	for _, key := range sortedRoutes(c.errors) {
		fmt.Fprintf(&b, "oxygent_http_request_errors_total{handler=\"%s\",method=\"%s\"} %d\n",
			escape(key.handler), escape(key.method), c.errors[key])
	}

	b.WriteString("# HELP oxygent_http_request_duration_seconds HTTP request duration in seconds.\n")
	b.WriteString("# TYPE oxygent_http_request_duration_seconds histogram\n")
	for _, key := range sortedRoutes(c.latency) {
		hist := c.latency[key]
		labels := fmt.Sprintf("handler=\"%s\",method=\"%s\"", escape(key.handler), escape(key.method))
		var cumulative uint64
		for idx, bound := range hist.buckets {
			cumulative += hist.counts[idx]
			fmt.Fprintf(&b, "oxygent_http_request_duration_seconds_bucket{%s,le=\"%s\"} %d\n", labels, formatFloat(bound), cumulative)
		}
		fmt.Fprintf(&b, "oxygent_http_request_duration_seconds_bucket{%s,le=\"+Inf\"} %d\n", labels, hist.count)
		fmt.Fprintf(&b, "oxygent_http_request_duration_seconds_sum{%s} %s\n", labels, formatFloat(hist.sum))
		fmt.Fprintf(&b, "oxygent_http_request_duration_seconds_count{%s} %d\n", labels, hist.count)
	}

	b.WriteString("# HELP oxygent_resource_events_total Total number of resource lifecycle events.\n")
	b.WriteString("# TYPE oxygent_resource_events_total counter\n")
	evKeys := make([]eventKey, 0, len(c.events))
	for key := range c.events {
		evKeys = append(evKeys, key)
	}
	sort.Slice(evKeys, func(i, j int) bool {
		if evKeys[i].kind != evKeys[j].kind {
			return evKeys[i].kind < evKeys[j].kind
		}
		return evKeys[i].action < evKeys[j].action
	})
	for _, key := range evKeys {
		fmt.Fprintf(&b, "oxygent_resource_events_total{kind=\"%s\",action=\"%s\"} %d\n",
			escape(key.kind), escape(key.action), c.events[key])
	}

	return b.String()
}

func sortedRoutes[V any](m map[routeKey]V) []routeKey {
	keys := make([]routeKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].handler != keys[j].handler {
			return keys[i].handler < keys[j].handler
		}
		return keys[i].method < keys[j].method
	})
	return keys
}

func escape(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "\n", "")
	return value
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
