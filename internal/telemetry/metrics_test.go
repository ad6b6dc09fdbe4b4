package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStats struct{}

func (fakeStats) Len() int            { return 7 }
func (fakeStats) PendingExpiry() int  { return 3 }
func (fakeStats) GateWaiting() int64  { return 1 }
func (fakeStats) GateRetries() uint64 { return 42 }

func TestStoreRecorder(t *testing.T) {
	before := testutil.ToFloat64(OpsTotal.WithLabelValues("get", "hit"))
	evBefore := testutil.ToFloat64(EvictionsTotal)

	var rec StoreRecorder
	rec.ObserveOp("get", "hit", time.Microsecond)
	rec.ObserveOp("get", "hit", time.Microsecond)
	rec.Evicted()

	if got := testutil.ToFloat64(OpsTotal.WithLabelValues("get", "hit")) - before; got != 2 {
		t.Fatalf("ops_total{get,hit} delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(EvictionsTotal) - evBefore; got != 1 {
		t.Fatalf("evictions_total delta = %v, want 1", got)
	}
}

func TestRegisterStore(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := RegisterStore(reg, fakeStats{}); err != nil {
		t.Fatalf("RegisterStore: %v", err)
	}

	want := `
# HELP zephyrkv_records Records held, including expired ones not yet evicted.
# TYPE zephyrkv_records gauge
zephyrkv_records 7
# HELP zephyrkv_expiry_pending Records that carry an expiration.
# TYPE zephyrkv_expiry_pending gauge
zephyrkv_expiry_pending 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "zephyrkv_records", "zephyrkv_expiry_pending"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}

	if err := RegisterStore(reg, fakeStats{}); err == nil {
		t.Fatalf("registering twice should fail")
	}
}

func TestInstrument(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("probe", "4xx"))

	h := Instrument("probe", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/probe", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if got := testutil.ToFloat64(RequestsTotal.WithLabelValues("probe", "4xx")) - before; got != 1 {
		t.Fatalf("requests_total{probe,4xx} delta = %v, want 1", got)
	}
}
