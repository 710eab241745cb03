package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"uptimeguard/db"
	"uptimeguard/idgen"
	"uptimeguard/model"
	"uptimeguard/pkg/logger"

	"go.uber.org/zap"
)

var errUnknownMonitor = errors.New("unknown monitor")

// MinMonitorInterval is the floor the scheduler clamps every monitor's
// interval to, so a misconfigured 1-second interval can't hammer a
// target or the database.
const MinMonitorInterval = 5

// Notifier is the notification engine's surface as seen by the
// scheduler. Implemented by the notification package; accepted here
// as an interface so this package never imports it.
type Notifier interface {
	Evaluate(ctx context.Context, monitorID string, newStatus int, message string, prevStatus *int)
}

// Scheduler owns one task per active monitor and drives its
// probe → record → notify loop.
type Scheduler struct {
	repo     db.Repository
	registry Registry
	notifier Notifier

	mu       sync.Mutex
	stopChs  map[string]chan struct{}
	removed  map[string]bool
}

func NewScheduler(repo db.Repository, registry Registry, notifier Notifier) *Scheduler {
	return &Scheduler{
		repo:     repo,
		registry: registry,
		notifier: notifier,
		stopChs:  make(map[string]chan struct{}),
		removed:  make(map[string]bool),
	}
}

// ResetAll enumerates active monitors from the repository and starts a
// task for each, discarding any tasks currently running.
func (s *Scheduler) ResetAll() error {
	s.Stop()

	monitors, err := s.repo.ListActiveMonitors()
	if err != nil {
		return err
	}
	for _, m := range monitors {
		s.startTask(m.ID)
	}
	return nil
}

// Stop signals every running task to exit between probes. It does not
// forcibly cancel in-flight I/O.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.stopChs {
		close(ch)
		delete(s.stopChs, id)
	}
}

// AddOrReplace ensures a task is running for the given monitor ID. If
// one already is, this is a no-op: the running task re-reads the
// monitor from the repository at the top of every iteration, so an
// update already committed by the caller takes effect on the next
// scheduling decision without restarting an in-flight probe.
func (s *Scheduler) AddOrReplace(monitorID string) {
	s.mu.Lock()
	_, running := s.stopChs[monitorID]
	s.mu.Unlock()
	if !running {
		s.startTask(monitorID)
	}
}

// Remove stops scheduling further probes for monitorID. A probe
// already in flight is allowed to finish and record normally; it is
// simply not followed by another.
func (s *Scheduler) Remove(monitorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.stopChs[monitorID]; ok {
		close(ch)
		delete(s.stopChs, monitorID)
	}
	s.removed[monitorID] = true
}

func (s *Scheduler) Pause(monitorID string) error {
	if err := s.repo.SetActive(monitorID, false); err != nil {
		return err
	}
	s.Remove(monitorID)
	return nil
}

func (s *Scheduler) Resume(monitorID string) error {
	if err := s.repo.SetActive(monitorID, true); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.removed, monitorID)
	s.mu.Unlock()
	s.startTask(monitorID)
	return nil
}

func (s *Scheduler) startTask(monitorID string) {
	s.mu.Lock()
	if _, exists := s.stopChs[monitorID]; exists {
		s.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	s.stopChs[monitorID] = stopCh
	delete(s.removed, monitorID)
	s.mu.Unlock()

	go s.runTask(monitorID, stopCh)
}

// runTask is the per-monitor loop: sleep-from-end scheduling means the
// next probe starts exactly `interval` after the previous one
// finished, regardless of how long it took — the trivial way to
// guarantee at-most-one-in-flight.
func (s *Scheduler) runTask(monitorID string, stopCh chan struct{}) {
	for {
		m, err := s.repo.GetMonitor(monitorID)
		if err != nil {
			logger.Error("scheduler: failed to load monitor", zap.String("id", monitorID), zap.Error(err))
			return
		}
		if m == nil || !m.Active {
			s.mu.Lock()
			delete(s.stopChs, monitorID)
			s.mu.Unlock()
			return
		}

		interval := m.Interval
		if interval < MinMonitorInterval {
			interval = MinMonitorInterval
		}

		s.runOnce(*m)

		select {
		case <-stopCh:
			return
		case <-time.After(time.Duration(interval) * time.Second):
		}
	}
}

func (s *Scheduler) runOnce(m model.Monitor) {
	ex, ok := s.registry[string(m.Type)]
	if !ok {
		logger.Warn("scheduler: no executor for monitor type", zap.String("type", string(m.Type)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Second)
	defer cancel()

	retryInterval := m.RetryInterval
	if retryInterval <= 0 {
		retryInterval = 1
	}

	result := runWithRetry(ctx, ex, m.ID, m.Config, m.Retries, time.Duration(retryInterval)*time.Second)
	result = applyUpsideDown(result, m.UpsideDown)

	prevStatus := m.LastStatus
	s.record(m, result)
	s.notifier.Evaluate(ctx, m.ID, result.Status, result.Message, prevStatus)
}

// RecordPush writes a heartbeat delivered by a push monitor's HTTP
// endpoint straight into history, bypassing the probe loop entirely —
// the "probe" here is the remote side calling in, not anything this
// process initiates.
func (s *Scheduler) RecordPush(monitorID string, status int, message string, ping *int) error {
	m, err := s.repo.GetMonitor(monitorID)
	if err != nil {
		return err
	}
	if m == nil {
		return errUnknownMonitor
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	prevStatus := m.LastStatus
	result := CheckResult{Status: status, Message: message, Ping: ping}
	s.record(*m, result)
	s.notifier.Evaluate(ctx, m.ID, status, message, prevStatus)
	return nil
}

func (s *Scheduler) record(m model.Monitor, result CheckResult) {
	now := time.Now()
	message := compactMessage(result, m.Type)

	row := &model.MonitorStatus{
		ID:        idgen.New(),
		MonitorID: m.ID,
		Status:    result.Status,
		Message:   message,
		Ping:      result.Ping,
		Timestamp: now,
	}

	if err := s.repo.RecordStatus(row, result.Status, result.Message, result.Ping, now); err != nil {
		logger.Error("scheduler: failed to record status", zap.String("monitor", m.ID), zap.Error(err))
	}
}

// compactMessage implements §4.4 step 2: UP rows for non-push monitors
// carry no message, since "the check succeeded" is implied by the
// status column and repeating it for every row bloats history for no
// reader benefit.
func compactMessage(result CheckResult, monitorType model.MonitorType) *string {
	if result.Status == StatusUp && monitorType != model.MonitorTypePush {
		return nil
	}
	if result.Status == StatusPending {
		msg := "等待中"
		return &msg
	}
	msg := result.Message
	for len(msg) > 0 && (msg[len(msg)-1] == ' ' || msg[len(msg)-1] == '\n') {
		msg = msg[:len(msg)-1]
	}
	return &msg
}
