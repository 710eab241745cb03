package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	apperrors "uptimeguard/pkg/errors"
)

type PortConfig struct {
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`
}

type portExecutor struct{ deps Deps }

func (e *portExecutor) Check(ctx context.Context, monitorID, rawConfig string) CheckResult {
	var cfg PortConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return down(apperrors.ConfigInvalid("配置解析失败: " + err.Error()).Error())
	}
	if cfg.Hostname == "" {
		return down(apperrors.ConfigInvalid("缺少 hostname 字段").Error())
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return down(fmt.Sprintf("配置无效: 端口号 %d 不是有效的端口值", cfg.Port))
	}

	addr := net.JoinHostPort(cfg.Hostname, fmt.Sprintf("%d", cfg.Port))
	timeout := defaultTimeoutOr(e.deps, 10*time.Second)

	start := time.Now()
	dialer := &net.Dialer{Timeout: timeout, Resolver: customResolver()}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	ping := int(time.Since(start).Milliseconds())
	if err != nil {
		return down(classifyDialError(err))
	}
	conn.Close()

	p := ping
	return up(fmt.Sprintf("成功连接到 %s", addr), &p)
}

func classifyDialError(err error) string {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection refused"):
		return "CONNECTION_REFUSED"
	case strings.Contains(errStr, "i/o timeout") || strings.Contains(errStr, "deadline exceeded"):
		return "TIMEOUT"
	case strings.Contains(errStr, "no such host"):
		return "HOST_NOT_FOUND"
	default:
		if len(errStr) > 80 {
			errStr = errStr[:77] + "..."
		}
		return "NETWORK_ERROR: " + errStr
	}
}
