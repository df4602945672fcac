package health

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(ctx context.Context) error {
	return p.err
}

func TestNewChecker(t *testing.T) {
	checker := NewChecker("store", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Message: "ok"}
	})

	if checker.Name() != "store" {
		t.Errorf("Name() = %v, want store", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", result.Status)
	}
}

func TestRegistry_RegisterAndCheck(t *testing.T) {
	registry := NewRegistry("manebot", "0.1.0")
	registry.Register(PingCheck("store", fakePinger{}, time.Second))
	registry.Register(AlwaysHealthy("commands"))

	report := registry.Check(context.Background())

	if report.Service != "manebot" || report.Version != "0.1.0" {
		t.Errorf("report identity = %s/%s", report.Service, report.Version)
	}
	if report.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Fatalf("Checks count = %v, want 2", len(report.Checks))
	}
	if report.Checks[0].Name != "commands" || report.Checks[1].Name != "store" {
		t.Errorf("checks not sorted by name: %s, %s", report.Checks[0].Name, report.Checks[1].Name)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry("manebot", "0.1.0")
	registry.Register(AlwaysHealthy("temp"))
	registry.Unregister("temp")

	if report := registry.Check(context.Background()); len(report.Checks) != 0 {
		t.Errorf("Checks count = %v, want 0", len(report.Checks))
	}
}

func TestRegistry_OverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unknown degrades", []Status{StatusHealthy, ""}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry("manebot", "0.1.0")
			for i, s := range tt.statuses {
				status := s
				registry.RegisterFunc(string(rune('a'+i)), func(ctx context.Context) CheckResult {
					return CheckResult{Status: status}
				})
			}

			if got := registry.Check(context.Background()).Status; got != tt.want {
				t.Errorf("Status = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistry_ConcurrentChecks(t *testing.T) {
	registry := NewRegistry("manebot", "0.1.0")

	var counter int32
	for i := 0; i < 5; i++ {
		registry.RegisterFunc("check"+string(rune('A'+i)), func(ctx context.Context) CheckResult {
			atomic.AddInt32(&counter, 1)
			time.Sleep(10 * time.Millisecond)
			return CheckResult{Status: StatusHealthy}
		})
	}

	start := time.Now()
	registry.Check(context.Background())
	duration := time.Since(start)

	if atomic.LoadInt32(&counter) != 5 {
		t.Errorf("Counter = %v, want 5", counter)
	}
	if duration > 200*time.Millisecond {
		t.Errorf("Duration = %v, expected concurrent execution", duration)
	}
}

func TestRegistry_OnReport(t *testing.T) {
	registry := NewRegistry("manebot", "0.1.0")
	registry.Register(PingCheck("store", fakePinger{err: errors.New("database is locked")}, time.Second))

	var seen *Report
	registry.OnReport(func(r *Report) { seen = r })

	report := registry.Check(context.Background())
	if seen != report {
		t.Fatal("listener did not receive the report")
	}
	if report.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", report.Status)
	}
	if report.Checks[0].Message != "database is locked" {
		t.Errorf("Message = %q", report.Checks[0].Message)
	}
}

func TestRegistry_Run(t *testing.T) {
	registry := NewRegistry("manebot", "0.1.0")
	registry.Register(AlwaysHealthy("commands"))

	var runs int32
	registry.OnReport(func(*Report) { atomic.AddInt32(&runs, 1) })

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	registry.Run(ctx, 10*time.Millisecond)

	if atomic.LoadInt32(&runs) < 2 {
		t.Errorf("runs = %d, want at least 2", runs)
	}
}

func TestTCPCheck(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()

	result := TCPCheck("grpc", addr, time.Second).Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy (%s)", result.Status, result.Message)
	}
	if result.Details["address"] != addr {
		t.Errorf("Details[address] = %v, want %s", result.Details["address"], addr)
	}

	ln.Close()
	result = TCPCheck("grpc", addr, time.Second).Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy after close", result.Status)
	}
}
