package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeInbox struct{}

func (fakeInbox) Pending() int     { return 3 }
func (fakeInbox) Processed() int64 { return 7 }
func (fakeInbox) Failed() int64    { return 2 }

func TestCollector(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewCollector(fakeInbox{})); err != nil {
		t.Fatalf("Register: %v", err)
	}
	n, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if n != 3 {
		t.Errorf("metric count = %d, want 3", n)
	}

	c := NewCollector(fakeInbox{})
	if got := testutil.CollectAndCount(c, "transcribepro_inbox_pending"); got != 1 {
		t.Errorf("pending series = %d, want 1", got)
	}
}

func TestCollector_NilStats(t *testing.T) {
	c := NewCollector(nil)
	if got := testutil.CollectAndCount(c); got != 3 {
		t.Errorf("series = %d, want 3", got)
	}
}

func TestInstrumentHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/items/{id}", "418"))
	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/items/{id}", "418"))
	if after-before != 1 {
		t.Errorf("requests counter delta = %v, want 1", after-before)
	}
}
