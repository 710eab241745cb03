package monitor

import (
	"context"
	"strings"
	"testing"
	"time"
)

type scriptedExecutor struct {
	results []CheckResult
	calls   int
}

func (e *scriptedExecutor) Check(ctx context.Context, monitorID, rawConfig string) CheckResult {
	r := e.results[e.calls]
	e.calls++
	return r
}

func TestRunWithRetrySucceedsImmediately(t *testing.T) {
	ex := &scriptedExecutor{results: []CheckResult{up("ok", nil)}}
	result := runWithRetry(context.Background(), ex, "m1", "{}", 3, time.Millisecond)
	if result.Status != StatusUp {
		t.Fatalf("expected UP, got %v", result)
	}
	if ex.calls != 1 {
		t.Fatalf("expected exactly one attempt on immediate success, got %d", ex.calls)
	}
}

func TestRunWithRetryRecoversOnRetry(t *testing.T) {
	ex := &scriptedExecutor{results: []CheckResult{
		down("boom"),
		down("boom"),
		up("recovered", nil),
	}}
	result := runWithRetry(context.Background(), ex, "m1", "{}", 3, time.Millisecond)
	if result.Status != StatusUp {
		t.Fatalf("expected UP after recovery, got %v", result)
	}
	if !strings.Contains(result.Message, "重试成功 (2/3)") {
		t.Fatalf("expected retry-success message to report attempt 2/3, got %q", result.Message)
	}
}

func TestRunWithRetryExhaustsAndReportsAttempts(t *testing.T) {
	ex := &scriptedExecutor{results: []CheckResult{
		down("boom"), down("boom"), down("boom"), down("boom"),
	}}
	result := runWithRetry(context.Background(), ex, "m1", "{}", 3, time.Millisecond)
	if result.Status != StatusDown {
		t.Fatalf("expected DOWN after exhausting retries, got %v", result)
	}
	if !strings.Contains(result.Message, "重试3次后仍然失败") {
		t.Fatalf("expected exhausted-retries message, got %q", result.Message)
	}
}

func TestRunWithRetryExhaustionKeepsFirstAttemptsPing(t *testing.T) {
	firstPing := 120
	ex := &scriptedExecutor{results: []CheckResult{
		{Status: StatusDown, Message: "boom", Ping: &firstPing},
		down("boom"), // later attempts time out and carry no ping
		down("boom"),
		down("boom"),
	}}
	result := runWithRetry(context.Background(), ex, "m1", "{}", 3, time.Millisecond)
	if result.Status != StatusDown {
		t.Fatalf("expected DOWN after exhausting retries, got %v", result)
	}
	if result.Ping == nil || *result.Ping != firstPing {
		t.Fatalf("expected the exhausted result to keep the first attempt's ping, got %v", result.Ping)
	}
}

func TestRunWithRetryZeroRetriesNeverRetries(t *testing.T) {
	ex := &scriptedExecutor{results: []CheckResult{down("boom")}}
	result := runWithRetry(context.Background(), ex, "m1", "{}", 0, time.Millisecond)
	if result.Status != StatusDown {
		t.Fatalf("expected DOWN, got %v", result)
	}
	if ex.calls != 1 {
		t.Fatalf("expected exactly one attempt with retries=0, got %d", ex.calls)
	}
}

func TestRunWithRetrySkipsConfigErrors(t *testing.T) {
	ex := &scriptedExecutor{results: []CheckResult{down("配置无效: 缺少 url 字段")}}
	result := runWithRetry(context.Background(), ex, "m1", "{}", 5, time.Millisecond)
	if ex.calls != 1 {
		t.Fatalf("expected config errors to skip retries entirely, got %d attempts", ex.calls)
	}
	if result.Status != StatusDown {
		t.Fatalf("expected DOWN, got %v", result)
	}
}

type panickyExecutor struct{}

func (panickyExecutor) Check(ctx context.Context, monitorID, rawConfig string) CheckResult {
	panic("executor exploded")
}

func TestSafeCheckRecoversPanicToDown(t *testing.T) {
	result := safeCheck(context.Background(), panickyExecutor{}, "m1", "{}")
	if result.Status != StatusDown {
		t.Fatalf("expected panic to produce DOWN, got %v", result)
	}
	if !strings.Contains(result.Message, "executor exploded") {
		t.Fatalf("expected panic message to be surfaced, got %q", result.Message)
	}
}

func TestApplyUpsideDownInverts(t *testing.T) {
	result := applyUpsideDown(up("fine", nil), true)
	if result.Status != StatusDown {
		t.Fatalf("expected inverted UP to become DOWN, got %v", result)
	}
	if !strings.HasPrefix(result.Message, "[inverted] ") {
		t.Fatalf("expected inverted message prefix, got %q", result.Message)
	}
}

func TestApplyUpsideDownNoOpWhenDisabled(t *testing.T) {
	original := down("broken")
	result := applyUpsideDown(original, false)
	if result.Status != StatusDown || result.Message != "broken" {
		t.Fatalf("expected passthrough when upsideDown is false, got %v", result)
	}
}
