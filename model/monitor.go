package model

import (
	"encoding/json"
	"time"
)

// MonitorType is the probe kind a Monitor runs.
type MonitorType string

const (
	MonitorTypeHTTP       MonitorType = "http"
	MonitorTypeHTTPSCert  MonitorType = "https-cert"
	MonitorTypeKeyword    MonitorType = "keyword"
	MonitorTypePort       MonitorType = "port"
	MonitorTypeMySQL      MonitorType = "mysql"
	MonitorTypeRedis      MonitorType = "redis"
	MonitorTypeICMP       MonitorType = "icmp"
	MonitorTypePush       MonitorType = "push"
)

// Status values produced by the engine. PENDING is only ever set by the
// push executor while it waits for a first heartbeat.
const (
	StatusDown    = 0
	StatusUp      = 1
	StatusPending = 2
)

// Monitor is a configured probe target. Config carries type-specific
// fields (see the Config* structs in the monitor package) serialized as
// JSON so the schema can evolve per type without new columns per type.
type Monitor struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Name        string `json:"name"`
	Type        MonitorType `json:"type"`
	Active      bool   `json:"active" gorm:"default:true"`
	Interval    int    `json:"interval"`      // seconds, >= 1
	Retries     int    `json:"retries"`       // >= 0
	RetryInterval int  `json:"retryInterval"` // seconds, >= 1
	ResendInterval int `json:"resendInterval"` // consecutive DOWN rows between repeats; 0 disables
	UpsideDown  bool   `json:"upsideDown"`
	Config      string `json:"config"` // JSON object, type-specific
	GroupID     *string `json:"groupId"`
	Description string `json:"description"`

	LastCheckAt *time.Time `json:"lastCheckAt"`
	LastStatus  *int       `json:"lastStatus"`
	LastMessage string     `json:"lastMessage"`
	LastPing    *int       `json:"lastPing"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DecodeConfig unmarshals Monitor.Config into dst, a pointer to one of
// the type-specific config structs.
func (m *Monitor) DecodeConfig(dst any) error {
	if m.Config == "" {
		return nil
	}
	return json.Unmarshal([]byte(m.Config), dst)
}

// EncodeConfig marshals src into Monitor.Config.
func (m *Monitor) EncodeConfig(src any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	m.Config = string(b)
	return nil
}

// RawConfig returns Monitor.Config decoded into a generic map, used to
// resolve a display address ("监控地址") without knowing the monitor's
// exact type at the call site.
func (m *Monitor) RawConfig() map[string]any {
	out := map[string]any{}
	if m.Config == "" {
		return out
	}
	_ = json.Unmarshal([]byte(m.Config), &out)
	return out
}

// MonitorGroup organizes monitors for display. Deleting a group sets
// GroupID to nil on member monitors; it never cascades.
type MonitorGroup struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Color        string `json:"color"`
	DisplayOrder int    `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
