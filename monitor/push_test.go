package monitor

import (
	"context"
	"testing"
	"time"
)

func TestPushExecutorReportsPendingBeforeFirstHeartbeat(t *testing.T) {
	ex := &pushExecutor{deps: Deps{
		PushLastCheck: func(string) (*time.Time, bool, error) { return nil, false, nil },
	}}
	result := ex.Check(context.Background(), "m1", `{"token":"tok","pushInterval":60}`)
	if result.Status != StatusPending {
		t.Fatalf("expected PENDING before any heartbeat has arrived, got %v", result.Status)
	}
}

func TestPushExecutorReportsUpWithinTolerance(t *testing.T) {
	last := time.Now().Add(-10 * time.Second)
	ex := &pushExecutor{deps: Deps{
		PushLastCheck: func(string) (*time.Time, bool, error) { return &last, true, nil },
	}}
	result := ex.Check(context.Background(), "m1", `{"token":"tok","pushInterval":60}`)
	if result.Status != StatusUp {
		t.Fatalf("expected UP within the heartbeat window, got %v", result.Status)
	}
}

func TestPushExecutorReportsDownOnMissedHeartbeat(t *testing.T) {
	last := time.Now().Add(-time.Hour)
	ex := &pushExecutor{deps: Deps{
		PushLastCheck: func(string) (*time.Time, bool, error) { return &last, true, nil },
	}}
	result := ex.Check(context.Background(), "m1", `{"token":"tok","pushInterval":60}`)
	if result.Status != StatusDown {
		t.Fatalf("expected DOWN after a missed heartbeat, got %v", result.Status)
	}
}
