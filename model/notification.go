package model

import "time"

// ChannelType identifies a notification dispatcher. The spec's Chinese
// display names (邮件, Webhook, 微信推送, 钉钉推送, 企业微信推送) are what an
// operator sees in the UI layer; internally the engine keys dispatchers
// by these stable English tags.
type ChannelType string

const (
	ChannelTypeEmail    ChannelType = "email"
	ChannelTypeWebhook  ChannelType = "webhook"
	ChannelTypeWeChat   ChannelType = "wechat-push"
	ChannelTypeDingTalk ChannelType = "dingtalk"
	ChannelTypeWeCom    ChannelType = "wecom"
)

// DisplayName returns the Chinese label a UI layer would show for t.
func (t ChannelType) DisplayName() string {
	switch t {
	case ChannelTypeEmail:
		return "邮件"
	case ChannelTypeWebhook:
		return "Webhook"
	case ChannelTypeWeChat:
		return "微信推送"
	case ChannelTypeDingTalk:
		return "钉钉推送"
	case ChannelTypeWeCom:
		return "企业微信推送"
	default:
		return string(t)
	}
}

// NotificationChannel is a configured delivery target.
type NotificationChannel struct {
	ID                    string      `gorm:"primaryKey" json:"id"`
	Name                  string      `json:"name"`
	Type                  ChannelType `json:"type"`
	Enabled               bool        `json:"enabled" gorm:"default:true"`
	Config                string      `json:"config"` // JSON, type-specific
	DefaultForNewMonitors bool        `json:"defaultForNewMonitors"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

// NotificationBinding enables a channel for a monitor. A disabled
// binding, or a binding whose channel is disabled, is skipped by the
// notification engine.
type NotificationBinding struct {
	MonitorID string `gorm:"primaryKey;index:idx_binding_monitor" json:"monitorId"`
	ChannelID string `gorm:"primaryKey;index:idx_binding_channel" json:"channelId"`
	Enabled   bool   `json:"enabled" gorm:"default:true"`
}

// ResolvedBinding pairs a binding with its channel, already validated
// enabled on both sides, for the notification engine's fan-out.
type ResolvedBinding struct {
	Binding NotificationBinding
	Channel NotificationChannel
}
