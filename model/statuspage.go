package model

import "time"

// StatusPage is a public read-only view; the engine never reads or
// writes these, they exist so the repository schema is complete for
// the CRUD layer that plugs in around this package.
type StatusPage struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `json:"name"`
	Slug        string    `gorm:"uniqueIndex" json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StatusPageMonitor is a membership row carrying per-page display
// settings. Deleting either side cascades the membership.
type StatusPageMonitor struct {
	StatusPageID string `gorm:"primaryKey;index:idx_spm_page" json:"statusPageId"`
	MonitorID    string `gorm:"primaryKey;index:idx_spm_monitor" json:"monitorId"`
	DisplayName  string `json:"displayName"`
	Order        int    `json:"order"`
}

// Setting is a generic key/value row for runtime configuration that a
// CRUD layer may edit without a restart. The only key read by this
// package tree is the daily report's recipient list; SMTP defaults and
// retention days come from config.yaml.
type Setting struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}
