package db

import (
	"testing"
	"time"

	"uptimeguard/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	err = gdb.AutoMigrate(
		&model.Monitor{},
		&model.MonitorGroup{},
		&model.MonitorStatus{},
		&model.NotificationChannel{},
		&model.NotificationBinding{},
		&model.StatusPage{},
		&model.StatusPageMonitor{},
		&model.Setting{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewRepository(gdb)
}

func mustCreateMonitor(t *testing.T, repo Repository, id string) *model.Monitor {
	t.Helper()
	m := &model.Monitor{ID: id, Name: "test monitor", Type: model.MonitorTypeHTTP, Active: true, Interval: 60}
	if err := repo.CreateMonitor(m); err != nil {
		t.Fatalf("failed to create monitor: %v", err)
	}
	return m
}

func ping(v int) *int { return &v }

func TestRecordStatusInsertsRowAndUpdatesMonitor(t *testing.T) {
	repo := newTestRepo(t)
	mustCreateMonitor(t, repo, "m1")

	now := time.Now()
	row := &model.MonitorStatus{ID: "s1", MonitorID: "m1", Status: model.StatusUp, Ping: ping(42), Timestamp: now}
	if err := repo.RecordStatus(row, model.StatusUp, "ok", ping(42), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetMonitor("m1")
	if err != nil || got == nil {
		t.Fatalf("unexpected error loading monitor: %v", err)
	}
	if got.LastStatus == nil || *got.LastStatus != model.StatusUp {
		t.Fatalf("expected last status to be updated to UP, got %v", got.LastStatus)
	}
	if got.LastMessage != "ok" {
		t.Fatalf("expected last message %q, got %q", "ok", got.LastMessage)
	}

	history, err := repo.RecentHistory("m1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one history row, got %d", len(history))
	}
}

func TestFirstDownSinceWalksBackContiguousDownRows(t *testing.T) {
	repo := newTestRepo(t)
	mustCreateMonitor(t, repo, "m1")

	base := time.Now().Add(-time.Hour)
	statuses := []struct {
		status int
		offset time.Duration
	}{
		{model.StatusUp, 0},
		{model.StatusDown, time.Minute},
		{model.StatusDown, 2 * time.Minute},
		{model.StatusDown, 3 * time.Minute},
	}
	for i, s := range statuses {
		row := &model.MonitorStatus{
			ID:        "s" + string(rune('0'+i)),
			MonitorID: "m1",
			Status:    s.status,
			Timestamp: base.Add(s.offset),
		}
		if err := repo.RecordStatus(row, s.status, "", nil, base.Add(s.offset)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	since, ok, err := repo.FirstDownSince("m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected monitor to be currently down")
	}
	want := base.Add(time.Minute)
	if !since.Equal(want) {
		t.Fatalf("expected first-down timestamp %v, got %v", want, since)
	}
}

func TestFirstDownSinceFalseWhenCurrentlyUp(t *testing.T) {
	repo := newTestRepo(t)
	mustCreateMonitor(t, repo, "m1")
	now := time.Now()
	row := &model.MonitorStatus{ID: "s1", MonitorID: "m1", Status: model.StatusUp, Timestamp: now}
	if err := repo.RecordStatus(row, model.StatusUp, "", nil, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, ok, err := repo.FirstDownSince("m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a currently-up monitor")
	}
}

func TestWindowStatsSummarizesHistory(t *testing.T) {
	repo := newTestRepo(t)
	mustCreateMonitor(t, repo, "m1")

	now := time.Now()
	rows := []struct {
		status int
		ping   *int
	}{
		{model.StatusUp, ping(10)},
		{model.StatusUp, ping(20)},
		{model.StatusDown, nil},
	}
	for i, r := range rows {
		row := &model.MonitorStatus{ID: "s" + string(rune('0'+i)), MonitorID: "m1", Status: r.status, Ping: r.ping, Timestamp: now}
		if err := repo.RecordStatus(row, r.status, "", r.ping, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	total, down, avgPing, err := repo.WindowStats("m1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 total rows, got %d", total)
	}
	if down != 1 {
		t.Fatalf("expected 1 down row, got %d", down)
	}
	if avgPing != 15 {
		t.Fatalf("expected average ping of 15, got %d", avgPing)
	}
}

func TestCountStatusSinceOnlyCountsAfterCutoff(t *testing.T) {
	repo := newTestRepo(t)
	mustCreateMonitor(t, repo, "m1")

	base := time.Now().Add(-time.Hour)
	for i, offset := range []time.Duration{0, time.Minute, 2 * time.Minute} {
		row := &model.MonitorStatus{ID: "s" + string(rune('0'+i)), MonitorID: "m1", Status: model.StatusDown, Timestamp: base.Add(offset)}
		if err := repo.RecordStatus(row, model.StatusDown, "", nil, base.Add(offset)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	count, err := repo.CountStatusSince("m1", model.StatusDown, base.Add(30*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows after the cutoff, got %d", count)
	}
}

func TestDeleteMonitorCascadesHistoryAndBindings(t *testing.T) {
	repo := newTestRepo(t)
	mustCreateMonitor(t, repo, "m1")

	now := time.Now()
	row := &model.MonitorStatus{ID: "s1", MonitorID: "m1", Status: model.StatusUp, Timestamp: now}
	if err := repo.RecordStatus(row, model.StatusUp, "", nil, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	channel := &model.NotificationChannel{ID: "c1", Name: "webhook", Type: model.ChannelTypeWebhook, Enabled: true}
	if err := repo.CreateChannel(channel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.SetBinding("m1", "c1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.DeleteMonitor("m1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetMonitor("m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected monitor to be deleted")
	}
	history, err := repo.RecentHistory("m1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected history to be cascade-deleted, got %d rows", len(history))
	}
	bindings, err := repo.ResolvedBindingsFor("m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bindings) != 0 {
		t.Fatalf("expected bindings to be cascade-deleted, got %d", len(bindings))
	}
}

func TestFindMonitorByPushTokenMatchesTokenField(t *testing.T) {
	repo := newTestRepo(t)
	m := &model.Monitor{ID: "m1", Name: "heartbeat", Type: model.MonitorTypePush, Active: true, Interval: 60}
	if err := m.EncodeConfig(map[string]any{"token": "tok-123", "pushInterval": 60}); err != nil {
		t.Fatalf("unexpected error encoding config: %v", err)
	}
	if err := repo.CreateMonitor(m); err != nil {
		t.Fatalf("failed to create monitor: %v", err)
	}

	got, err := repo.FindMonitorByPushToken("tok-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "m1" {
		t.Fatalf("expected to find monitor m1 by its push token, got %v", got)
	}

	miss, err := repo.FindMonitorByPushToken("does-not-exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if miss != nil {
		t.Fatalf("expected no match for an unknown token, got %v", miss)
	}
}

func TestSettingRoundTrips(t *testing.T) {
	repo := newTestRepo(t)
	if _, ok, err := repo.GetSetting("foo"); err != nil || ok {
		t.Fatalf("expected unset setting to report ok=false, got ok=%v err=%v", ok, err)
	}
	if err := repo.SetSetting("foo", "bar"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value, ok, err := repo.GetSetting("foo")
	if err != nil || !ok || value != "bar" {
		t.Fatalf("expected (bar, true, nil), got (%q, %v, %v)", value, ok, err)
	}
}
