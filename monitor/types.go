// Package monitor implements the probe scheduler and the per-type
// executors it drives. Executors are stateless: they take a raw JSON
// configuration and a context, decode it, and return a CheckResult.
package monitor

import (
	"context"
	"time"
)

// CheckResult is what every executor returns, before upside-down
// inversion and compact-message rewriting are applied by the caller.
type CheckResult struct {
	Status  int
	Message string
	Ping    *int
	Details map[string]any
}

func up(message string, ping *int) CheckResult {
	return CheckResult{Status: StatusUp, Message: message, Ping: ping}
}

func down(message string) CheckResult {
	return CheckResult{Status: StatusDown, Message: message}
}

func pending(message string) CheckResult {
	return CheckResult{Status: StatusPending, Message: message}
}

const (
	StatusDown    = 0
	StatusUp      = 1
	StatusPending = 2
)

// Executor probes one monitor configuration once. It must not retry
// internally — the scheduler's retry wrapper owns that policy.
// monitorID is only consulted by the push executor, which has no
// outbound I/O of its own and instead reads repository state.
type Executor interface {
	Check(ctx context.Context, monitorID string, rawConfig string) CheckResult
}

// Registry maps a monitor type tag to its executor. Built once at
// startup by NewRegistry.
type Registry map[string]Executor

// Deps bundles the settings and callbacks executors share: the default
// probe timeout and the push executor's heartbeat lookup.
type Deps struct {
	DefaultTimeout time.Duration
	// PushTolerance and PushLastCheck are used by the push executor,
	// which reads repository state instead of doing outbound I/O.
	PushTolerance float64
	PushLastCheck func(monitorID string) (*time.Time, bool, error)
}

func NewRegistry(d Deps) Registry {
	return Registry{
		"http":       &httpExecutor{deps: d},
		"https-cert": &certExecutor{deps: d},
		"keyword":    &keywordExecutor{deps: d},
		"port":       &portExecutor{deps: d},
		"mysql":      &mysqlExecutor{deps: d},
		"redis":      &redisExecutor{deps: d},
		"icmp":       &icmpExecutor{deps: d},
		"push":       &pushExecutor{deps: d},
	}
}
