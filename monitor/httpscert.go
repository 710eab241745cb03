package monitor

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	apperrors "uptimeguard/pkg/errors"
)

type certExecutor struct{ deps Deps }

func (e *certExecutor) Check(ctx context.Context, monitorID, rawConfig string) CheckResult {
	var cfg HTTPConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return down(apperrors.ConfigInvalid("配置解析失败: " + err.Error()).Error())
	}
	if !strings.HasPrefix(cfg.URL, "https://") {
		return down(apperrors.ConfigInvalid("url 必须以 https:// 开头").Error())
	}

	host := strings.TrimPrefix(cfg.URL, "https://")
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	if !strings.Contains(host, ":") {
		host += ":443"
	}

	timeout := cfg.timeout(defaultTimeoutOr(e.deps, 10*time.Second))

	start := time.Now()
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: timeout, Resolver: customResolver()}, "tcp", host, &tls.Config{
		InsecureSkipVerify: cfg.IgnoreTLS,
		ServerName:         hostOnly(host),
	})
	if err != nil {
		return down(classifyHTTPError(err))
	}
	defer conn.Close()
	ping := int(time.Since(start).Milliseconds())

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return down("未获取到证书")
	}
	leaf := state.PeerCertificates[0]
	now := time.Now()
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return down("证书无效 (未生效或已过期)")
	}

	daysLeft := int(leaf.NotAfter.Sub(now).Hours() / 24)
	p := ping
	return up(fmt.Sprintf("证书有效，距过期还有 %d 天", daysLeft), &p)
}

func hostOnly(hostport string) string {
	h, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return h
}
