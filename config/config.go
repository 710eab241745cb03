package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration tree, loaded once at startup
// from config.yaml and overridden by environment variables.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Monitor      MonitorConfig      `yaml:"monitor"`
	Notification NotificationConfig `yaml:"notification"`
	Retention    RetentionConfig    `yaml:"retention"`
	Cleaner      CleanerConfig      `yaml:"cleaner"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// MonitorConfig holds engine-wide defaults applied when a monitor does
// not set its own value.
type MonitorConfig struct {
	DNSServer string `yaml:"dns_server"`

	DefaultTimeoutSeconds int `yaml:"default_timeout_seconds"`

	// PushToleranceMultiplier is how many push intervals may elapse
	// without a heartbeat before the push executor reports DOWN.
	PushToleranceMultiplier float64 `yaml:"push_tolerance_multiplier"`

	// CertExpiryWarningDays is how many days before expiry an http
	// monitor with notifyCertExpiry set starts reporting DOWN.
	CertExpiryWarningDays int `yaml:"cert_expiry_warning_days"`
}

// NotificationConfig holds fallback SMTP settings used when an email
// channel's own config omits them, plus the daily-report sender.
type NotificationConfig struct {
	SMTPServer   string `yaml:"smtp_server"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
	FromName     string `yaml:"from_name"`

	DailyReportTime string `yaml:"daily_report_time"` // "HH:MM", local time
}

// RetentionConfig controls how long history rows survive.
type RetentionConfig struct {
	HistoryDays int `yaml:"history_days"`
}

// CleanerConfig controls how often the retention cleaner runs.
type CleanerConfig struct {
	IntervalHours int `yaml:"interval_hours"`
}

var GlobalConfig Config

func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, env vars and defaults may still
		// be enough to run.
		if !os.IsNotExist(err) {
			return err
		}
	} else {
		if err := yaml.Unmarshal(data, &GlobalConfig); err != nil {
			return err
		}
	}

	applyDefaults(&GlobalConfig)
	applyEnvOverrides(&GlobalConfig)
	return nil
}

func applyDefaults(c *Config) {
	if c.Monitor.DefaultTimeoutSeconds <= 0 {
		c.Monitor.DefaultTimeoutSeconds = 10
	}
	if c.Monitor.PushToleranceMultiplier <= 0 {
		c.Monitor.PushToleranceMultiplier = 1.5
	}
	if c.Monitor.CertExpiryWarningDays <= 0 {
		c.Monitor.CertExpiryWarningDays = 14
	}
	if c.Notification.SMTPPort <= 0 {
		c.Notification.SMTPPort = 587
	}
	if c.Notification.FromName == "" {
		c.Notification.FromName = "UptimeGuard"
	}
	if c.Notification.DailyReportTime == "" {
		c.Notification.DailyReportTime = "09:00"
	}
	if c.Retention.HistoryDays <= 0 {
		c.Retention.HistoryDays = 30
	}
	if c.Cleaner.IntervalHours <= 0 {
		c.Cleaner.IntervalHours = 24
	}
}

func applyEnvOverrides(c *Config) {
	if port := os.Getenv("PORT"); port != "" {
		var p int
		fmt.Sscanf(port, "%d", &p)
		if p != 0 {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("SMTP_SERVER"); host != "" {
		c.Notification.SMTPServer = host
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		c.Notification.SMTPUsername = user
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		c.Notification.SMTPPassword = pass
	}
}
