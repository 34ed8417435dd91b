package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestRecorder_ExposesObservations(t *testing.T) {
	r := New()
	r.ObserveRequest("list", 200, 120*time.Millisecond)
	r.ObserveRequest("list", 200, 80*time.Millisecond)
	r.ObserveRequest("upload", 0, time.Second)
	r.StaleResponse()
	r.Upload(nil)
	r.Upload(errors.New("413"))
	r.SetUp(true)

	body := scrape(t, r)
	for _, want := range []string{
		`sill_api_requests_total{code="200",endpoint="list"} 2`,
		`sill_api_requests_total{code="error",endpoint="upload"} 1`,
		`sill_api_request_duration_seconds_count{endpoint="list"} 2`,
		`sill_feed_stale_responses_total 1`,
		`sill_uploads_total{result="ok"} 1`,
		`sill_uploads_total{result="error"} 1`,
		`sill_api_up 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveRequest("list", 200, time.Millisecond)
	r.StaleResponse()
	r.Upload(nil)
	r.SetUp(false)
}

func TestHandler_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	New().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "ok" {
		t.Fatalf("/healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	r := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.serve(ctx, ln, nil) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if strings.TrimSpace(string(body)) != "ok" {
		t.Fatalf("body = %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not stop after cancel")
	}
}
