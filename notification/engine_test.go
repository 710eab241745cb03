package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"uptimeguard/model"
)

// fakeRepo is an in-memory stand-in for db.Repository, just enough of
// it for the notification engine's decision logic. Methods the engine
// never calls panic instead of silently returning zero values, so a
// test that starts depending on one fails loudly.
type fakeRepo struct {
	monitor  model.Monitor
	channels map[string]model.NotificationChannel
	bindings []model.ResolvedBinding
	history  []model.MonitorStatus // newest first
}

func (f *fakeRepo) GetMonitor(id string) (*model.Monitor, error) {
	m := f.monitor
	return &m, nil
}
func (f *fakeRepo) ResolvedBindingsFor(monitorID string) ([]model.ResolvedBinding, error) {
	return f.bindings, nil
}
func (f *fakeRepo) RecentHistory(monitorID string, n int) ([]model.MonitorStatus, error) {
	if n >= len(f.history) {
		return f.history, nil
	}
	return f.history[:n], nil
}
func (f *fakeRepo) CountStatusSince(monitorID string, status int, since time.Time) (int64, error) {
	var n int64
	for _, h := range f.history {
		if h.Status == status && h.Timestamp.After(since) {
			n++
		}
	}
	return n, nil
}
func (f *fakeRepo) FirstDownSince(monitorID string) (time.Time, bool, error) {
	if len(f.history) == 0 || f.history[0].Status != model.StatusDown {
		return time.Time{}, false, nil
	}
	since := f.history[0].Timestamp
	for _, h := range f.history {
		if h.Status != model.StatusDown {
			break
		}
		since = h.Timestamp
	}
	return since, true, nil
}
func (f *fakeRepo) GetChannel(id string) (*model.NotificationChannel, error) {
	c, ok := f.channels[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeRepo) ListActiveMonitors() ([]model.Monitor, error)   { panic("not used") }
func (f *fakeRepo) FindMonitorByPushToken(string) (*model.Monitor, error) { panic("not used") }
func (f *fakeRepo) CreateMonitor(*model.Monitor) error             { panic("not used") }
func (f *fakeRepo) UpdateMonitor(*model.Monitor) error             { panic("not used") }
func (f *fakeRepo) DeleteMonitor(string) error                     { panic("not used") }
func (f *fakeRepo) SetActive(string, bool) error                   { panic("not used") }
func (f *fakeRepo) RecordStatus(*model.MonitorStatus, int, string, *int, time.Time) error {
	panic("not used")
}
func (f *fakeRepo) LastStatusBefore(string, time.Time, string) (*model.MonitorStatus, bool, error) {
	panic("not used")
}
func (f *fakeRepo) DeleteHistoryOlderThan(time.Time) (int64, error) { panic("not used") }
func (f *fakeRepo) WindowStats(string, time.Time) (int64, int64, int64, error) {
	panic("not used")
}
func (f *fakeRepo) ListGroups() ([]model.MonitorGroup, error)      { panic("not used") }
func (f *fakeRepo) CreateGroup(*model.MonitorGroup) error          { panic("not used") }
func (f *fakeRepo) UpdateGroup(*model.MonitorGroup) error          { panic("not used") }
func (f *fakeRepo) DeleteGroup(string) error                       { panic("not used") }
func (f *fakeRepo) ListChannels() ([]model.NotificationChannel, error) { panic("not used") }
func (f *fakeRepo) CreateChannel(*model.NotificationChannel) error { panic("not used") }
func (f *fakeRepo) UpdateChannel(*model.NotificationChannel) error { panic("not used") }
func (f *fakeRepo) DeleteChannel(string) error                     { panic("not used") }
func (f *fakeRepo) SetBinding(string, string, bool) error          { panic("not used") }
func (f *fakeRepo) GetSetting(string) (string, bool, error)        { panic("not used") }
func (f *fakeRepo) SetSetting(string, string) error                { panic("not used") }

type recordingDispatcher struct {
	calls []Data
	err   error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, config string, data Data) error {
	d.calls = append(d.calls, data)
	return d.err
}

func newEngineFixture() (*Engine, *fakeRepo, *recordingDispatcher) {
	repo := &fakeRepo{
		monitor: model.Monitor{
			ID:             "m1",
			Name:           "api",
			Type:           model.MonitorTypeHTTP,
			ResendInterval: 3,
		},
		channels: map[string]model.NotificationChannel{
			"c1": {ID: "c1", Name: "webhook", Type: model.ChannelTypeWebhook, Enabled: true},
		},
		bindings: []model.ResolvedBinding{
			{
				Binding: model.NotificationBinding{MonitorID: "m1", ChannelID: "c1", Enabled: true},
				Channel: model.NotificationChannel{ID: "c1", Name: "webhook", Type: model.ChannelTypeWebhook, Enabled: true},
			},
		},
	}
	dispatcher := &recordingDispatcher{}
	engine := NewEngine(repo, map[model.ChannelType]Dispatcher{
		model.ChannelTypeWebhook: dispatcher,
	})
	return engine, repo, dispatcher
}

func TestEvaluateSuppressesFirstEverUp(t *testing.T) {
	engine, repo, dispatcher := newEngineFixture()
	repo.history = []model.MonitorStatus{
		{Status: model.StatusUp, Timestamp: time.Now()},
	}
	engine.Evaluate(context.Background(), "m1", model.StatusUp, "ok", nil)
	if len(dispatcher.calls) != 0 {
		t.Fatalf("expected no notification on a monitor's first-ever UP, got %d", len(dispatcher.calls))
	}
}

func TestEvaluateEmitsOnFirstDown(t *testing.T) {
	engine, repo, dispatcher := newEngineFixture()
	now := time.Now()
	repo.history = []model.MonitorStatus{
		{Status: model.StatusDown, Timestamp: now},
	}
	engine.Evaluate(context.Background(), "m1", model.StatusDown, "HTTP 500", nil)
	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected exactly one notification on first DOWN, got %d", len(dispatcher.calls))
	}
}

func TestEvaluateSameStatusIsANoOp(t *testing.T) {
	engine, repo, dispatcher := newEngineFixture()
	prev := model.StatusDown
	repo.history = []model.MonitorStatus{
		{Status: model.StatusDown, Timestamp: time.Now()},
		{Status: model.StatusDown, Timestamp: time.Now().Add(-time.Minute)},
	}
	engine.Evaluate(context.Background(), "m1", model.StatusDown, "still down", &prev)
	if len(dispatcher.calls) != 0 {
		t.Fatalf("expected no repeat notification when status hasn't changed, got %d", len(dispatcher.calls))
	}
}

func TestEvaluateThrottlesRepeatDownByResendInterval(t *testing.T) {
	engine, repo, dispatcher := newEngineFixture()
	now := time.Now()
	repo.history = []model.MonitorStatus{
		{Status: model.StatusDown, Timestamp: now},
		{Status: model.StatusDown, Timestamp: now.Add(-time.Minute)},
	}

	prev := model.StatusUp
	engine.Evaluate(context.Background(), "m1", model.StatusDown, "down 1", &prev)
	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected the first DOWN after an UP to notify, got %d", len(dispatcher.calls))
	}

	// Resend interval is 3: two more DOWN rows since the last notify
	// should still be throttled.
	repo.history = append([]model.MonitorStatus{
		{Status: model.StatusDown, Timestamp: now.Add(time.Minute)},
		{Status: model.StatusDown, Timestamp: now.Add(2 * time.Minute)},
	}, repo.history...)
	downStatus := model.StatusDown
	engine.Evaluate(context.Background(), "m1", model.StatusDown, "down again", &downStatus)
	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected repeat DOWN under the resend interval to stay throttled, got %d", len(dispatcher.calls))
	}

	// A third additional DOWN row crosses the resend interval and must
	// fire a second notification even though the monitor never left DOWN.
	repo.history = append([]model.MonitorStatus{
		{Status: model.StatusDown, Timestamp: now.Add(3 * time.Minute)},
	}, repo.history...)
	engine.Evaluate(context.Background(), "m1", model.StatusDown, "down again", &downStatus)
	if len(dispatcher.calls) != 2 {
		t.Fatalf("expected the resend interval to be crossed and trigger a second notification, got %d", len(dispatcher.calls))
	}
}

func TestEvaluateEmitsRecoveryAfterDown(t *testing.T) {
	engine, repo, dispatcher := newEngineFixture()
	now := time.Now()
	repo.history = []model.MonitorStatus{
		{Status: model.StatusUp, Timestamp: now},
		{Status: model.StatusDown, Timestamp: now.Add(-time.Minute)},
	}
	prev := model.StatusDown
	engine.Evaluate(context.Background(), "m1", model.StatusUp, "recovered", &prev)
	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected a recovery notification, got %d", len(dispatcher.calls))
	}
	if dispatcher.calls[0].StatusText != "正常" {
		t.Fatalf("expected recovery status text, got %q", dispatcher.calls[0].StatusText)
	}
}

func TestEngineTestDispatchesCannedPayload(t *testing.T) {
	engine, _, dispatcher := newEngineFixture()
	if err := engine.Test(context.Background(), "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected Test to dispatch exactly once, got %d", len(dispatcher.calls))
	}
}

func TestEngineTestFailsOnUnknownChannel(t *testing.T) {
	engine, _, _ := newEngineFixture()
	err := engine.Test(context.Background(), "does-not-exist")
	if err == nil {
		t.Fatalf("expected an error for an unknown channel")
	}
	if fmt.Sprint(err) == "" {
		t.Fatalf("expected a non-empty error message")
	}
}
