package monitor

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"uptimeguard/config"
	apperrors "uptimeguard/pkg/errors"
)

// HTTPConfig is the decoded config for the http, keyword, and
// https-cert monitor types; keyword and https-cert reuse the HTTP
// fields they share rather than duplicating the struct.
type HTTPConfig struct {
	URL               string            `json:"url"`
	HTTPMethod        string            `json:"httpMethod"`
	StatusCodes       string            `json:"statusCodes"`
	RequestBody       string            `json:"requestBody"`
	RequestHeaders    map[string]string `json:"requestHeaders"`
	IgnoreTLS         bool              `json:"ignoreTls"`
	MaxRedirects      *int              `json:"maxRedirects"`
	ConnectTimeout    int               `json:"connectTimeout"`
	NotifyCertExpiry  bool              `json:"notifyCertExpiry"`
	Keyword           string            `json:"keyword"`
}

func (c HTTPConfig) timeout(defaultTimeout time.Duration) time.Duration {
	if c.ConnectTimeout > 0 {
		return time.Duration(c.ConnectTimeout) * time.Second
	}
	return defaultTimeout
}

func (c HTTPConfig) maxRedirects() int {
	if c.MaxRedirects == nil {
		return 1 // follow by default
	}
	return *c.MaxRedirects
}

// acceptedStatus parses spec's "200" or "200-299" syntax, defaulting
// to any 2xx code when unset.
func acceptedStatus(spec string, code int) bool {
	if spec == "" {
		return code >= 200 && code < 300
	}
	if idx := strings.IndexByte(spec, '-'); idx >= 0 {
		loStr, hiStr := spec[:idx], spec[idx+1:]
		lo, err1 := strconv.Atoi(strings.TrimSpace(loStr))
		hi, err2 := strconv.Atoi(strings.TrimSpace(hiStr))
		if err1 != nil || err2 != nil {
			return code >= 200 && code < 300
		}
		return code >= lo && code <= hi
	}
	single, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil {
		return code >= 200 && code < 300
	}
	return code == single
}

type httpExecutor struct{ deps Deps }

func (e *httpExecutor) Check(ctx context.Context, monitorID, rawConfig string) CheckResult {
	var cfg HTTPConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return down(apperrors.ConfigInvalid("配置解析失败: " + err.Error()).Error())
	}
	if cfg.URL == "" {
		return down(apperrors.ConfigInvalid("缺少 url 字段").Error())
	}
	return doHTTPCheck(ctx, cfg, e.deps)
}

func doHTTPCheck(ctx context.Context, cfg HTTPConfig, deps Deps) CheckResult {
	timeout := cfg.timeout(defaultTimeoutOr(deps, 10*time.Second))
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := cfg.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if cfg.RequestBody != "" {
		body = strings.NewReader(cfg.RequestBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, body)
	if err != nil {
		return down(apperrors.ConfigInvalid("无法创建请求: " + err.Error()).Error())
	}
	for k, v := range cfg.RequestHeaders {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "UptimeGuard-Monitor/1.0")
	}

	start := time.Now()
	client := httpClientFor(cfg.maxRedirects(), cfg.IgnoreTLS)
	resp, err := client.Do(req)
	if err != nil {
		return down(classifyHTTPError(err))
	}
	defer resp.Body.Close()
	ping := int(time.Since(start).Milliseconds())

	if cfg.NotifyCertExpiry && resp.TLS != nil {
		if msg, expiring := certExpiryMessage(resp.TLS.PeerCertificates); expiring {
			return down(msg)
		}
	}

	if !acceptedStatus(cfg.StatusCodes, resp.StatusCode) {
		return down(fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	msg := fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	p := ping
	return up(msg, &p)
}

func defaultTimeoutOr(deps Deps, fallback time.Duration) time.Duration {
	if deps.DefaultTimeout > 0 {
		return deps.DefaultTimeout
	}
	return fallback
}

func classifyHTTPError(err error) string {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "deadline exceeded") || strings.Contains(errStr, "Client.Timeout"):
		return "TIMEOUT"
	case strings.Contains(errStr, "connection refused"):
		return "CONNECTION_REFUSED"
	case strings.Contains(errStr, "no such host"):
		return "HOST_NOT_FOUND"
	case strings.Contains(errStr, "remote error: tls") || strings.Contains(errStr, "x509"):
		return "TLS_ERROR"
	default:
		if len(errStr) > 80 {
			errStr = errStr[:77] + "..."
		}
		return "NETWORK_ERROR: " + errStr
	}
}

// certExpiryMessage checks the leaf certificate's expiry against the
// configured warning window, returning a DOWN message when the cert
// has already expired or is expiring soon.
func certExpiryMessage(chain []*x509.Certificate) (string, bool) {
	if len(chain) == 0 {
		return "", false
	}
	leaf := chain[0]
	now := time.Now()
	if now.After(leaf.NotAfter) {
		return "证书已过期", true
	}
	days := int(leaf.NotAfter.Sub(now).Hours() / 24)
	if days <= certExpiryWarningDays() {
		return fmt.Sprintf("证书将在 %d 天后过期", days), true
	}
	return "", false
}

// certExpiryWarningDays reads the operator-configured warning window,
// applied after LoadConfig has run and filled in its default.
func certExpiryWarningDays() int {
	return config.GlobalConfig.Monitor.CertExpiryWarningDays
}
