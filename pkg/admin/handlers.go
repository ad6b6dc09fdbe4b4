package admin

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ryandielhenn/zephyrkv/internal/telemetry"
)

// Stats is the store view reported by /info.
type Stats interface {
	Len() int
	PendingExpiry() int
	GateWaiting() int64
}

type Admin struct {
	stats Stats
	log   *zap.Logger
}

func New(stats Stats, log *zap.Logger) *Admin {
	if log == nil {
		log = zap.NewNop()
	}
	return &Admin{stats: stats, log: log}
}

// Router mounts the admin endpoints. The key-value API is not exposed.
func (a *Admin) Router() http.Handler {
	r := mux.NewRouter()
	r.Handle("/healthz", telemetry.Instrument("healthz", http.HandlerFunc(a.Healthz))).Methods(http.MethodGet)
	r.Handle("/info", telemetry.Instrument("info", http.HandlerFunc(a.Info))).Methods(http.MethodGet)
	r.Handle("/metrics", telemetry.MetricsHandler()).Methods(http.MethodGet)
	return r
}

// Healthz returns 200 OK to indicate the process is alive.
func (a *Admin) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Info writes a JSON payload with the process ID, current time and store
// counters.
func (a *Admin) Info(w http.ResponseWriter, _ *http.Request) {
	type resp struct {
		PID           int       `json:"pid"`
		Now           time.Time `json:"now"`
		Records       int       `json:"records"`
		ExpiryPending int       `json:"expiry_pending"`
		GateWaiting   int64     `json:"gate_waiting"`
	}
	data, err := json.Marshal(resp{
		PID:           os.Getpid(),
		Now:           time.Now(),
		Records:       a.stats.Len(),
		ExpiryPending: a.stats.PendingExpiry(),
		GateWaiting:   a.stats.GateWaiting(),
	})
	if err != nil {
		a.log.Error("encode info", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
