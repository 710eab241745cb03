package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "uptimeguard/pkg/errors"

	probing "github.com/prometheus-community/pro-bing"
)

type ICMPConfig struct {
	Hostname        string `json:"hostname"`
	PacketCount     int    `json:"packetCount"`
	MaxPacketLoss   float64 `json:"maxPacketLoss"`
	MaxResponseTime *int   `json:"maxResponseTime"`
}

type icmpExecutor struct{ deps Deps }

func (e *icmpExecutor) Check(ctx context.Context, monitorID, rawConfig string) CheckResult {
	var cfg ICMPConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return down(apperrors.ConfigInvalid("配置解析失败: " + err.Error()).Error())
	}
	if cfg.Hostname == "" {
		return down(apperrors.ConfigInvalid("缺少 hostname 字段").Error())
	}
	count := cfg.PacketCount
	if count <= 0 {
		count = 4
	}

	pinger, err := probing.NewPinger(cfg.Hostname)
	if err != nil {
		return down("ICMP 初始化失败: " + err.Error())
	}
	pinger.SetPrivileged(true)
	pinger.Count = count
	pinger.Interval = 100 * time.Millisecond
	pinger.Timeout = defaultTimeoutOr(e.deps, 10*time.Second)

	if err := pinger.Run(); err != nil {
		return down("ICMP 探测失败: " + err.Error())
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return down("100% 丢包")
	}
	if stats.PacketLoss > cfg.MaxPacketLoss {
		return down(fmt.Sprintf("丢包率 %.0f%% 超过阈值 %.0f%%", stats.PacketLoss, cfg.MaxPacketLoss))
	}

	avgMs := int(stats.AvgRtt.Milliseconds())
	if cfg.MaxResponseTime != nil && avgMs > *cfg.MaxResponseTime {
		return down(fmt.Sprintf("平均响应时间 %d ms 超过阈值 %d ms", avgMs, *cfg.MaxResponseTime))
	}

	msg := fmt.Sprintf("平均响应时间 %.2f ms", float64(stats.AvgRtt.Microseconds())/1000.0)
	if stats.PacketLoss > 0 {
		msg += fmt.Sprintf(" (丢包 %.0f%%)", stats.PacketLoss)
	}
	ping := avgMs
	return up(msg, &ping)
}
