package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"uptimeguard/db"
	"uptimeguard/model"
	"uptimeguard/pkg/logger"

	"go.uber.org/zap"
)

const (
	statusDown = 0
	statusUp   = 1
)

type lastNotifiedEntry struct {
	time   time.Time
	status int
}

// Engine is the notification decision engine from §4.5: given a probe
// result and the status it transitioned from, it decides whether to
// alert, builds the payload, and fans it out across a monitor's
// enabled channels. lastNotified is intentionally process-local and
// lost on restart — the decision only needs to suppress *repeat*
// alerts while this process is the one observing the monitor.
type Engine struct {
	repo db.Repository

	mu           sync.Mutex
	lastNotified map[string]lastNotifiedEntry

	dispatchers map[model.ChannelType]Dispatcher
}

func NewEngine(repo db.Repository, dispatchers map[model.ChannelType]Dispatcher) *Engine {
	return &Engine{
		repo:         repo,
		lastNotified: make(map[string]lastNotifiedEntry),
		dispatchers:  dispatchers,
	}
}

// Evaluate implements the ordered decision rules of §4.5. prevStatus
// is the monitor's last-known status before the probe that just
// completed; nil only on the first-ever evaluation of a monitor or
// after a restart that lost in-memory state.
func (e *Engine) Evaluate(ctx context.Context, monitorID string, newStatus int, message string, prevStatus *int) {
	m, err := e.repo.GetMonitor(monitorID)
	if err != nil || m == nil {
		logger.Error("notification: failed to load monitor", zap.String("id", monitorID), zap.Error(err))
		return
	}

	bindings, err := e.repo.ResolvedBindingsFor(monitorID)
	if err != nil {
		logger.Error("notification: failed to load bindings", zap.String("id", monitorID), zap.Error(err))
		return
	}
	if len(bindings) == 0 {
		return
	}

	history, err := e.repo.RecentHistory(monitorID, 2)
	if err != nil {
		logger.Error("notification: failed to load history", zap.String("id", monitorID), zap.Error(err))
		return
	}
	isNew := len(history) <= 1

	var realPrev *int
	if prevStatus != nil {
		realPrev = prevStatus
	} else if !isNew && len(history) >= 2 {
		s := history[1].Status
		realPrev = &s
	}

	if prevStatus != nil && realPrev != nil && *realPrev == newStatus {
		// A repeated DOWN only goes on to the resend-interval check when
		// this engine has already alerted on the current outage.
		e.mu.Lock()
		last, hasEntry := e.lastNotified[monitorID]
		e.mu.Unlock()
		if newStatus != statusDown || !hasEntry || last.status != statusDown {
			return
		}
	}
	if isNew && newStatus == statusUp {
		return
	}

	now := time.Now()
	var body string
	var emit bool
	var failureInfo *FailureInfo

	switch newStatus {
	case statusDown:
		body, emit, failureInfo = e.decideDown(monitorID, now, message)
	default:
		if realPrev != nil && *realPrev == statusDown && !isNew {
			body, emit = e.decideRecovery(monitorID, now, message)
		} else {
			body = message
			emit = true
			e.setLastNotified(monitorID, now, newStatus)
		}
	}

	if !emit {
		return
	}

	addr := addressOf(*m)
	if addr != "" {
		body = fmt.Sprintf("监控地址: %s\n%s", addr, body)
	}

	data := Data{
		MonitorName: m.Name,
		MonitorType: string(m.Type),
		Address:     addr,
		Status:      newStatus,
		StatusText:  statusText(newStatus),
		Time:        now,
		Message:     body,
		FailureInfo: failureInfo,
	}

	e.dispatch(ctx, bindings, data)
}

// Test dispatches a canned payload through channelID's real dispatcher,
// synchronously, so a manual "send test notification" call exercises
// the identical signing/formatting logic a production alert would.
func (e *Engine) Test(ctx context.Context, channelID string) error {
	ch, err := e.repo.GetChannel(channelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("channel not found")
	}
	d, ok := e.dispatchers[ch.Type]
	if !ok {
		return fmt.Errorf("no dispatcher registered for channel type %q", ch.Type)
	}

	now := time.Now()
	data := Data{
		MonitorName: "测试监控",
		MonitorType: "http",
		Address:     "https://example.com",
		Status:      statusDown,
		StatusText:  statusText(statusDown),
		Time:        now,
		Message:     "这是一条测试通知，用于验证通道配置是否正确。",
	}
	return d.Dispatch(ctx, ch.Config, data)
}

func (e *Engine) decideDown(monitorID string, now time.Time, message string) (string, bool, *FailureInfo) {
	m, err := e.repo.GetMonitor(monitorID)
	if err != nil || m == nil {
		return "", false, nil
	}

	e.mu.Lock()
	prev, hasEntry := e.lastNotified[monitorID]
	e.mu.Unlock()

	if hasEntry && prev.status == statusDown {
		if m.ResendInterval <= 0 {
			return "", false, nil
		}
		count, err := e.repo.CountStatusSince(monitorID, statusDown, prev.time)
		if err != nil {
			logger.Error("notification: count since failed", zap.Error(err))
			return "", false, nil
		}
		if count < int64(m.ResendInterval) {
			return "", false, nil
		}
	}

	firstFailure, ok, err := e.repo.FirstDownSince(monitorID)
	if err != nil {
		logger.Error("notification: first-down lookup failed", zap.Error(err))
	}
	if !ok {
		firstFailure = time.Unix(0, 0)
	}

	count, err := e.repo.CountStatusSince(monitorID, statusDown, firstFailure.Add(-time.Nanosecond))
	if err != nil {
		count = 1
	}

	durationMinutes := int64(now.Sub(firstFailure).Minutes())
	prefix := fmt.Sprintf("连续失败 %d 次，首次失败于 %s，持续 %d 分钟", count, firstFailure.Format("2006-01-02 15:04:05"), durationMinutes)

	e.setLastNotified(monitorID, now, statusDown)
	info := &FailureInfo{
		Count:            int(count),
		FirstFailureTime: firstFailure,
		LastFailureTime:  now,
		DurationMinutes:  durationMinutes,
	}
	return prefix + "\n" + message, true, info
}

func (e *Engine) decideRecovery(monitorID string, now time.Time, message string) (string, bool) {
	e.mu.Lock()
	prev, hasEntry := e.lastNotified[monitorID]
	e.mu.Unlock()

	var durationMinutes int64
	if hasEntry && prev.status == statusDown {
		durationMinutes = int64(now.Sub(prev.time).Minutes())
	}

	prefix := fmt.Sprintf("监控已恢复正常。故障持续了约 %d 分钟。", durationMinutes)
	e.setLastNotified(monitorID, now, statusUp)
	return prefix + "\n" + message, true
}

func (e *Engine) setLastNotified(monitorID string, t time.Time, status int) {
	e.mu.Lock()
	e.lastNotified[monitorID] = lastNotifiedEntry{time: t, status: status}
	e.mu.Unlock()
}

func (e *Engine) dispatch(ctx context.Context, bindings []model.ResolvedBinding, data Data) {
	var wg sync.WaitGroup
	for _, b := range bindings {
		b := b
		d, ok := e.dispatchers[b.Channel.Type]
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Dispatch(ctx, b.Channel.Config, data); err != nil {
				logger.Error("notification: dispatch failed",
					zap.String("channel", b.Channel.Name),
					zap.String("type", string(b.Channel.Type)),
					zap.Error(err))
			}
		}()
	}
	wg.Wait()
}

func statusText(status int) string {
	if status == statusUp {
		return "正常"
	}
	return "异常"
}

func addressOf(m model.Monitor) string {
	raw := m.RawConfig()
	if url, ok := raw["url"].(string); ok && url != "" {
		return url
	}
	host, hasHost := raw["hostname"].(string)
	if !hasHost || host == "" {
		return ""
	}
	if port, ok := raw["port"].(float64); ok && port > 0 {
		return fmt.Sprintf("%s:%d", host, int(port))
	}
	return host
}
