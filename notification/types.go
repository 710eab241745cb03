// Package notification implements the decision engine that turns a
// probe result into zero or more outbound alerts, and the per-channel
// dispatchers that actually deliver them.
package notification

import (
	"context"
	"time"
)

// Data is what every dispatcher receives, already resolved from the
// monitor and the engine's decision: Message carries any aggregated
// failure count or recovery-duration prefix the engine prepended.
type Data struct {
	MonitorName string
	MonitorType string
	Address     string
	Status      int
	StatusText  string
	Time        time.Time
	Message     string

	FailureInfo *FailureInfo
}

type FailureInfo struct {
	Count            int
	FirstFailureTime time.Time
	LastFailureTime  time.Time
	DurationMinutes  int64
}

// Dispatcher delivers one notification over one channel. Implementors
// must not retry; the engine already decided this is worth sending
// exactly once.
type Dispatcher interface {
	Dispatch(ctx context.Context, config string, data Data) error
}
