package notification

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"uptimeguard/config"
	"uptimeguard/db"
	"uptimeguard/model"
	"uptimeguard/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const dailyReportRecipientsSettingKey = "dailyReportEmails"

// ReportScheduler emails a per-monitor uptime summary once a day at the
// configured time, to whichever addresses were opted in via Setting.
// The teacher computed this with a hand-rolled minute ticker plus a
// string time-of-day compare; a cron schedule expresses the same thing
// without reimplementing "did the clock just tick past HH:MM".
type ReportScheduler struct {
	repo   db.Repository
	cron   *cron.Cron
	entryID cron.EntryID
}

func NewReportScheduler(repo db.Repository) *ReportScheduler {
	return &ReportScheduler{
		repo: repo,
		cron: cron.New(),
	}
}

// Start schedules the report at config.GlobalConfig.Notification.DailyReportTime
// ("HH:MM", 24h, server-local time).
func (s *ReportScheduler) Start() error {
	spec, err := cronSpecFromHHMM(config.GlobalConfig.Notification.DailyReportTime)
	if err != nil {
		return err
	}
	id, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return err
	}
	s.entryID = id
	s.cron.Start()
	return nil
}

func (s *ReportScheduler) Stop() {
	s.cron.Stop()
}

func cronSpecFromHHMM(hhmm string) (string, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid daily report time %q, want HH:MM", hhmm)
	}
	var hour, minute int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return "", fmt.Errorf("invalid daily report time %q: %w", hhmm, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &minute); err != nil {
		return "", fmt.Errorf("invalid daily report time %q: %w", hhmm, err)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func (s *ReportScheduler) run() {
	raw, ok, err := s.repo.GetSetting(dailyReportRecipientsSettingKey)
	if err != nil {
		logger.Error("daily report: failed to load recipients", zap.Error(err))
		return
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}
	recipients := splitRecipients(raw)
	if len(recipients) == 0 {
		return
	}

	monitors, err := s.repo.ListActiveMonitors()
	if err != nil {
		logger.Error("daily report: failed to load monitors", zap.Error(err))
		return
	}

	const window = 24 * time.Hour
	since := time.Now().Add(-window)

	var up, down int
	reportMonitors := make([]MonitorInfo, 0, len(monitors))
	for i, m := range monitors {
		total, downCount, avgPing, err := s.repo.WindowStats(m.ID, since)
		if err != nil {
			logger.Error("daily report: window stats failed", zap.String("monitor", m.ID), zap.Error(err))
			continue
		}

		uptime := 100.0
		if total > 0 {
			uptime = float64(total-downCount) / float64(total) * 100.0
		}

		statusStr, color := "检测中", "#f1c40f"
		if m.LastStatus != nil {
			switch *m.LastStatus {
			case model.StatusUp:
				statusStr, color = "正常", "#2ecc71"
				up++
			case model.StatusDown:
				statusStr, color = "异常", "#e74c3c"
				down++
			}
		}

		uptimeColor := "#2ecc71"
		if uptime < 90 {
			uptimeColor = "#e74c3c"
		} else if uptime < 99 {
			uptimeColor = "#f1c40f"
		}

		rowBg := "#ffffff"
		if i%2 == 1 {
			rowBg = "#f8f9fa"
		}

		reportMonitors = append(reportMonitors, MonitorInfo{
			Name:           m.Name,
			Type:           strings.ToUpper(string(m.Type)),
			Uptime24h:      uptime,
			AvgResponse24h: avgPing,
			Status:         statusStr,
			Color:          color,
			UptimeColor:    uptimeColor,
			RowBg:          rowBg,
		})
	}

	uptimePercent := 0.0
	if len(monitors) > 0 {
		uptimePercent = float64(up) / float64(len(monitors)) * 100.0
	}
	downColor := "#94a3b8"
	if down > 0 {
		downColor = "#e74c3c"
	}

	html, err := RenderDailyReportEmail(DailyReportData{
		Date:          time.Now().Format("2006-01-02"),
		TotalCount:    len(monitors),
		UptimePercent: uptimePercent,
		DownCount:     down,
		DownColor:     downColor,
		Monitors:      reportMonitors,
	})
	if err != nil {
		logger.Error("daily report: render failed", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("UptimeGuard 日报 - %s", time.Now().Format("2006-01-02"))
	for _, to := range recipients {
		if err := sendReportEmail(to, subject, html); err != nil {
			logger.Error("daily report: send failed", zap.String("to", to), zap.Error(err))
		}
	}
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sendReportEmail(to, subject, html string) error {
	cfg := config.GlobalConfig.Notification
	if cfg.SMTPServer == "" {
		return fmt.Errorf("no SMTP server configured")
	}

	from := cfg.FromEmail
	if from == "" {
		from = cfg.SMTPUsername
	}
	msg := buildMIMEMessage(from, to, subject, html)
	addr := fmt.Sprintf("%s:%d", cfg.SMTPServer, cfg.SMTPPort)

	var auth smtp.Auth
	if cfg.SMTPUsername != "" && cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPServer)
	}

	if cfg.SMTPPort == 465 {
		return sendImplicitTLS(addr, cfg.SMTPServer, auth, from, to, msg)
	}
	return sendSTARTTLSOrPlain(addr, cfg.SMTPServer, auth, from, to, msg)
}
