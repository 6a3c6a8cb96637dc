package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Shortened.Inc()
	m.Redirects.WithLabelValues("hit").Inc()
	m.Redirects.WithLabelValues("hit").Inc()
	m.Conflicts.Add(3)
	m.HTTPRequests.WithLabelValues("/url/{short}", http.MethodGet, "302").Inc()

	if got := testutil.ToFloat64(m.Shortened); got != 1 {
		t.Errorf("shortened = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Redirects.WithLabelValues("hit")); got != 2 {
		t.Errorf("redirects{hit} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Conflicts); got != 3 {
		t.Errorf("conflicts = %v, want 3", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"shortener_urls_shortened_total",
		"shortener_redirects_total",
		"shortener_code_conflicts_total",
		"shortener_http_requests_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	New(reg)
}

func TestHandler(t *testing.T) {
	m := NewNop()
	m.Shortened.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "shortener_urls_shortened_total 1") {
		t.Errorf("body does not expose the counter:\n%s", rec.Body.String())
	}
}

func TestNewNopIsIndependent(t *testing.T) {
	a, b := NewNop(), NewNop()
	a.Shortened.Inc()

	if got := testutil.ToFloat64(b.Shortened); got != 0 {
		t.Errorf("second registry counter = %v, want 0", got)
	}
}
