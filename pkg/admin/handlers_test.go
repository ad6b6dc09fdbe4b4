package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ryandielhenn/zephyrkv/pkg/kv"
)

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(New(kv.NewStore(nil), nil).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestInfoReportsStore(t *testing.T) {
	s := kv.NewStore([]kv.Entry{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "2", TTL: time.Minute},
	})
	srv := httptest.NewServer(New(s, nil).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/info")
	if err != nil {
		t.Fatalf("GET /info: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var body struct {
		PID           int `json:"pid"`
		Records       int `json:"records"`
		ExpiryPending int `json:"expiry_pending"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.PID != os.Getpid() || body.Records != 2 || body.ExpiryPending != 1 {
		t.Fatalf("info = %+v", body)
	}
}

func TestMetricsAndMethods(t *testing.T) {
	srv := httptest.NewServer(New(kv.NewStore(nil), nil).Router())
	defer srv.Close()

	// drive one instrumented request so the vectors have a child
	if resp, err := http.Get(srv.URL + "/healthz"); err == nil {
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "zephyrkv_requests_total") {
		t.Fatalf("metrics output missing zephyrkv_requests_total")
	}

	post, err := http.Post(srv.URL+"/healthz", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /healthz: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST /healthz status = %d, want 405", post.StatusCode)
	}
}
