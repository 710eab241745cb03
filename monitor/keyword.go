package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "uptimeguard/pkg/errors"
)

type keywordExecutor struct{ deps Deps }

func (e *keywordExecutor) Check(ctx context.Context, monitorID, rawConfig string) CheckResult {
	var cfg HTTPConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return down(apperrors.ConfigInvalid("配置解析失败: " + err.Error()).Error())
	}
	if cfg.URL == "" || cfg.Keyword == "" {
		return down(apperrors.ConfigInvalid("缺少 url 或 keyword 字段").Error())
	}

	keywords := splitKeywords(cfg.Keyword)

	timeout := cfg.timeout(defaultTimeoutOr(e.deps, 10*time.Second))
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, methodOrGet(cfg.HTTPMethod), cfg.URL, nil)
	if err != nil {
		return down(apperrors.ConfigInvalid("无法创建请求: " + err.Error()).Error())
	}
	for k, v := range cfg.RequestHeaders {
		req.Header.Set(k, v)
	}

	start := time.Now()
	client := httpClientFor(cfg.maxRedirects(), cfg.IgnoreTLS)
	resp, err := client.Do(req)
	if err != nil {
		return down(classifyHTTPError(err))
	}
	defer resp.Body.Close()
	ping := int(time.Since(start).Milliseconds())

	if !acceptedStatus(cfg.StatusCodes, resp.StatusCode) {
		return down(fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return down("读取响应体失败: " + err.Error())
	}
	body := string(bodyBytes)

	for _, kw := range keywords {
		if strings.Contains(body, kw) {
			p := ping
			return up(fmt.Sprintf("匹配到关键词: %s", kw), &p)
		}
	}
	return down(fmt.Sprintf("未匹配到任何关键词 (%s)", cfg.Keyword))
}

func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func methodOrGet(m string) string {
	if m == "" {
		return http.MethodGet
	}
	return m
}
