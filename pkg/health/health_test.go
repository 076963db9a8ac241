package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// stubCheck is a controllable HealthCheck for checker tests.
type stubCheck struct {
	name string
	err  error
}

func (s *stubCheck) Name() string                    { return s.name }
func (s *stubCheck) Check(ctx context.Context) error { return s.err }

func TestCheckHealth_AllPassing(t *testing.T) {
	hc := NewHealthChecker()
	hc.AddCheck(&stubCheck{name: "a"})
	hc.AddCheck(&stubCheck{name: "b"})

	status := hc.CheckHealth(context.Background())

	if status.Status != "healthy" {
		t.Errorf("Status = %q, want %q", status.Status, "healthy")
	}
	if len(status.Checks) != 2 {
		t.Fatalf("len(Checks) = %d, want 2", len(status.Checks))
	}
	for name, check := range status.Checks {
		if check.Status != "healthy" {
			t.Errorf("check %q status = %q, want healthy", name, check.Status)
		}
	}
}

func TestCheckHealth_OneFailing(t *testing.T) {
	hc := NewHealthChecker()
	hc.AddCheck(&stubCheck{name: "good"})
	hc.AddCheck(&stubCheck{name: "bad", err: errors.New("broken")})

	status := hc.CheckHealth(context.Background())

	if status.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", status.Status)
	}
	if status.Checks["bad"].Message != "broken" {
		t.Errorf("bad check message = %q, want %q", status.Checks["bad"].Message, "broken")
	}
	if status.Checks["good"].Status != "healthy" {
		t.Errorf("good check status = %q, want healthy", status.Checks["good"].Status)
	}
}

func TestAddCheck_ReplacesSameName(t *testing.T) {
	hc := NewHealthChecker()
	hc.AddCheck(&stubCheck{name: "x", err: errors.New("old")})
	hc.AddCheck(&stubCheck{name: "x"})

	status := hc.CheckHealth(context.Background())
	if status.Status != "healthy" {
		t.Errorf("Status = %q, want healthy after replacement", status.Status)
	}
}

func TestRemoveCheck(t *testing.T) {
	hc := NewHealthChecker()
	hc.AddCheck(&stubCheck{name: "x", err: errors.New("bad")})
	hc.RemoveCheck("x")

	status := hc.CheckHealth(context.Background())
	if status.Status != "healthy" {
		t.Errorf("Status = %q, want healthy after removal", status.Status)
	}
	if len(status.Checks) != 0 {
		t.Errorf("len(Checks) = %d, want 0", len(status.Checks))
	}
}

func TestLivenessHandler(t *testing.T) {
	hc := NewHealthChecker()
	// Liveness ignores check results; a failing check must not matter.
	hc.AddCheck(&stubCheck{name: "bad", err: errors.New("broken")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	hc.LivenessHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("body status = %q, want alive", body["status"])
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		checkErr   error
		wantCode   int
		wantStatus string
	}{
		{
			name:       "ready when checks pass",
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
		},
		{
			name:       "unavailable when a check fails",
			checkErr:   errors.New("stalled"),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			hc.AddCheck(&stubCheck{name: "sim", err: tt.checkErr})

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			rec := httptest.NewRecorder()

			hc.ReadinessHandler(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}

			var status HealthStatus
			if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if status.Status != tt.wantStatus {
				t.Errorf("body status = %q, want %q", status.Status, tt.wantStatus)
			}
		})
	}
}

func TestSimulationHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		maxAge  time.Duration
		wantErr bool
	}{
		{name: "fresh heartbeat", age: 100 * time.Millisecond, maxAge: time.Second},
		{name: "stalled loop", age: 2 * time.Second, maxAge: time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := time.Now().Add(-tt.age)
			check := NewSimulationHealthCheck(func() time.Time { return last }, tt.maxAge)

			if check.Name() != "simulation" {
				t.Errorf("Name() = %q, want simulation", check.Name())
			}

			err := check.Check(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNetworkHealthCheck(t *testing.T) {
	t.Run("active listener", func(t *testing.T) {
		check := NewNetworkHealthCheck(func() string { return "127.0.0.1:4566" })
		if err := check.Check(context.Background()); err != nil {
			t.Errorf("Check() error = %v, want nil", err)
		}
	})

	t.Run("missing listener", func(t *testing.T) {
		check := NewNetworkHealthCheck(func() string { return "" })
		if err := check.Check(context.Background()); err == nil {
			t.Error("Check() = nil, want error for empty address")
		}
	})
}

func TestMemoryHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		limit   int64
		usage   int64
		wantErr bool
	}{
		{name: "under limit", limit: 500, usage: 100},
		{name: "at limit", limit: 500, usage: 500},
		{name: "over limit", limit: 500, usage: 501, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewMemoryHealthCheck(tt.limit, func() int64 { return tt.usage })
			err := check.Check(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
