package db

import (
	"errors"
	"time"

	"uptimeguard/model"

	"gorm.io/gorm"
)

// Repository is the persistence surface the scheduler, notification
// engine, and server package depend on. It is implemented here against
// gorm+sqlite but kept as an interface so the executors and engine
// never touch *gorm.DB directly.
type Repository interface {
	ListActiveMonitors() ([]model.Monitor, error)
	GetMonitor(id string) (*model.Monitor, error)
	FindMonitorByPushToken(token string) (*model.Monitor, error)
	CreateMonitor(m *model.Monitor) error
	UpdateMonitor(m *model.Monitor) error
	DeleteMonitor(id string) error
	SetActive(id string, active bool) error

	// RecordStatus inserts a history row and updates the monitor's
	// last-known fields in a single transaction.
	RecordStatus(row *model.MonitorStatus, lastStatus int, lastMessage string, lastPing *int, at time.Time) error

	// RecentHistory returns the most recent n rows for a monitor,
	// newest first.
	RecentHistory(monitorID string, n int) ([]model.MonitorStatus, error)

	// CountStatusSince counts rows for monitorID with the given status
	// recorded strictly after since.
	CountStatusSince(monitorID string, status int, since time.Time) (int64, error)

	// LastStatusBefore returns the most recent row for monitorID at or
	// before at, excluding the row identified by excludeID (used to look
	// one row back from the row just inserted). ok is false if no such
	// row exists.
	LastStatusBefore(monitorID string, at time.Time, excludeID string) (*model.MonitorStatus, bool, error)

	// FirstDownSince returns the earliest contiguous-DOWN row's
	// timestamp for a monitor, i.e. how long it has been down. ok is
	// false if the monitor isn't currently down.
	FirstDownSince(monitorID string) (time.Time, bool, error)

	DeleteHistoryOlderThan(cutoff time.Time) (int64, error)

	// WindowStats summarizes a monitor's history since `since`: total
	// rows observed, how many were DOWN, and the average ping among
	// rows that recorded one (UP rows mostly). Used by the daily report.
	WindowStats(monitorID string, since time.Time) (total int64, downCount int64, avgPing int64, err error)

	ListGroups() ([]model.MonitorGroup, error)
	CreateGroup(g *model.MonitorGroup) error
	UpdateGroup(g *model.MonitorGroup) error
	DeleteGroup(id string) error

	ListChannels() ([]model.NotificationChannel, error)
	GetChannel(id string) (*model.NotificationChannel, error)
	CreateChannel(c *model.NotificationChannel) error
	UpdateChannel(c *model.NotificationChannel) error
	DeleteChannel(id string) error

	// ResolvedBindingsFor returns the enabled channel bindings for a
	// monitor, with disabled channels already filtered out.
	ResolvedBindingsFor(monitorID string) ([]model.ResolvedBinding, error)
	SetBinding(monitorID, channelID string, enabled bool) error

	GetSetting(key string) (string, bool, error)
	SetSetting(key, value string) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListActiveMonitors() ([]model.Monitor, error) {
	var monitors []model.Monitor
	err := r.db.Where("active = ?", true).Find(&monitors).Error
	return monitors, err
}

func (r *gormRepository) GetMonitor(id string) (*model.Monitor, error) {
	var m model.Monitor
	err := r.db.First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) FindMonitorByPushToken(token string) (*model.Monitor, error) {
	var m model.Monitor
	// Token lives inside Config JSON; SQLite's json_extract lets us
	// query it without a dedicated column.
	err := r.db.Where("type = ? AND json_extract(config, '$.token') = ?", model.MonitorTypePush, token).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) CreateMonitor(m *model.Monitor) error {
	return r.db.Create(m).Error
}

func (r *gormRepository) UpdateMonitor(m *model.Monitor) error {
	return r.db.Save(m).Error
}

func (r *gormRepository) DeleteMonitor(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("monitor_id = ?", id).Delete(&model.MonitorStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Where("monitor_id = ?", id).Delete(&model.NotificationBinding{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Monitor{}, "id = ?", id).Error
	})
}

func (r *gormRepository) SetActive(id string, active bool) error {
	return r.db.Model(&model.Monitor{}).Where("id = ?", id).Update("active", active).Error
}

func (r *gormRepository) RecordStatus(row *model.MonitorStatus, lastStatus int, lastMessage string, lastPing *int, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"last_check_at": at,
			"last_status":   lastStatus,
			"last_message":  lastMessage,
			"last_ping":     lastPing,
		}
		return tx.Model(&model.Monitor{}).Where("id = ?", row.MonitorID).Updates(updates).Error
	})
}

func (r *gormRepository) RecentHistory(monitorID string, n int) ([]model.MonitorStatus, error) {
	var rows []model.MonitorStatus
	err := r.db.Where("monitor_id = ?", monitorID).Order("timestamp desc").Limit(n).Find(&rows).Error
	return rows, err
}

func (r *gormRepository) CountStatusSince(monitorID string, status int, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.MonitorStatus{}).
		Where("monitor_id = ? AND status = ? AND timestamp > ?", monitorID, status, since).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) LastStatusBefore(monitorID string, at time.Time, excludeID string) (*model.MonitorStatus, bool, error) {
	var row model.MonitorStatus
	err := r.db.Where("monitor_id = ? AND timestamp <= ? AND id <> ?", monitorID, at, excludeID).
		Order("timestamp desc").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

func (r *gormRepository) FirstDownSince(monitorID string) (time.Time, bool, error) {
	var rows []model.MonitorStatus
	// Walk back from the newest row while status stays DOWN; cap the
	// scan so a monitor down for months doesn't pull its whole history.
	err := r.db.Where("monitor_id = ?", monitorID).Order("timestamp desc").Limit(10000).Find(&rows).Error
	if err != nil {
		return time.Time{}, false, err
	}
	if len(rows) == 0 || rows[0].Status != model.StatusDown {
		return time.Time{}, false, nil
	}
	since := rows[0].Timestamp
	for _, row := range rows {
		if row.Status != model.StatusDown {
			break
		}
		since = row.Timestamp
	}
	return since, true, nil
}

func (r *gormRepository) DeleteHistoryOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("timestamp < ?", cutoff).Delete(&model.MonitorStatus{})
	return res.RowsAffected, res.Error
}

func (r *gormRepository) WindowStats(monitorID string, since time.Time) (int64, int64, int64, error) {
	var total int64
	if err := r.db.Model(&model.MonitorStatus{}).
		Where("monitor_id = ? AND timestamp > ?", monitorID, since).
		Count(&total).Error; err != nil {
		return 0, 0, 0, err
	}

	var downCount int64
	if err := r.db.Model(&model.MonitorStatus{}).
		Where("monitor_id = ? AND timestamp > ? AND status = ?", monitorID, since, model.StatusDown).
		Count(&downCount).Error; err != nil {
		return 0, 0, 0, err
	}

	var avgPing float64
	row := r.db.Model(&model.MonitorStatus{}).
		Where("monitor_id = ? AND timestamp > ? AND ping IS NOT NULL", monitorID, since).
		Select("COALESCE(AVG(ping), 0)").Row()
	if row != nil {
		_ = row.Scan(&avgPing)
	}

	return total, downCount, int64(avgPing), nil
}

func (r *gormRepository) ListGroups() ([]model.MonitorGroup, error) {
	var groups []model.MonitorGroup
	err := r.db.Order("display_order asc").Find(&groups).Error
	return groups, err
}

func (r *gormRepository) CreateGroup(g *model.MonitorGroup) error {
	return r.db.Create(g).Error
}

func (r *gormRepository) UpdateGroup(g *model.MonitorGroup) error {
	return r.db.Save(g).Error
}

func (r *gormRepository) DeleteGroup(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Monitor{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.MonitorGroup{}, "id = ?", id).Error
	})
}

func (r *gormRepository) ListChannels() ([]model.NotificationChannel, error) {
	var channels []model.NotificationChannel
	err := r.db.Find(&channels).Error
	return channels, err
}

func (r *gormRepository) GetChannel(id string) (*model.NotificationChannel, error) {
	var c model.NotificationChannel
	err := r.db.First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) CreateChannel(c *model.NotificationChannel) error {
	return r.db.Create(c).Error
}

func (r *gormRepository) UpdateChannel(c *model.NotificationChannel) error {
	return r.db.Save(c).Error
}

func (r *gormRepository) DeleteChannel(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", id).Delete(&model.NotificationBinding{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.NotificationChannel{}, "id = ?", id).Error
	})
}

func (r *gormRepository) ResolvedBindingsFor(monitorID string) ([]model.ResolvedBinding, error) {
	var bindings []model.NotificationBinding
	if err := r.db.Where("monitor_id = ? AND enabled = ?", monitorID, true).Find(&bindings).Error; err != nil {
		return nil, err
	}
	out := make([]model.ResolvedBinding, 0, len(bindings))
	for _, b := range bindings {
		var ch model.NotificationChannel
		err := r.db.First(&ch, "id = ?", b.ChannelID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !ch.Enabled {
			continue
		}
		out = append(out, model.ResolvedBinding{Binding: b, Channel: ch})
	}
	return out, nil
}

func (r *gormRepository) SetBinding(monitorID, channelID string, enabled bool) error {
	binding := model.NotificationBinding{MonitorID: monitorID, ChannelID: channelID, Enabled: enabled}
	return r.db.Save(&binding).Error
}

func (r *gormRepository) GetSetting(key string) (string, bool, error) {
	var s model.Setting
	err := r.db.First(&s, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

func (r *gormRepository) SetSetting(key, value string) error {
	s := model.Setting{Key: key, Value: value}
	return r.db.Save(&s).Error
}
