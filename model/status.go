package model

import "time"

// MonitorStatus is one immutable probe-attempt row. Message is null
// whenever Status is UP and the owning monitor is not a push monitor
// (see the recorder's compact-message rule).
type MonitorStatus struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	MonitorID string    `gorm:"index:idx_monitor_status_time" json:"monitorId"`
	Status    int       `json:"status"`
	Message   *string   `json:"message"`
	Ping      *int      `json:"ping"`
	Details   string    `json:"details,omitempty"` // JSON, optional
	Timestamp time.Time `gorm:"index:idx_monitor_status_time" json:"timestamp"`
}
