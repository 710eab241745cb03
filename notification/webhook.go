package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type WebhookConfig struct {
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers"`
	ContentType  string            `json:"contentType"`
	BodyTemplate string            `json:"bodyTemplate"`
}

var webhookHTTPClient = &http.Client{Timeout: 10 * time.Second}

type WebhookDispatcher struct{}

func (WebhookDispatcher) Dispatch(ctx context.Context, rawConfig string, data Data) error {
	var cfg WebhookConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return fmt.Errorf("invalid webhook channel config: %w", err)
	}
	if cfg.URL == "" {
		return fmt.Errorf("webhook channel missing url")
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodPost
	}
	contentType := cfg.ContentType
	if contentType == "" {
		contentType = "application/json"
	}

	fields := templateFields(data)
	var body []byte
	if cfg.BodyTemplate != "" {
		escapeForJSON := strings.Contains(contentType, "json")
		body = []byte(substitutePlaceholders(cfg.BodyTemplate, fields, escapeForJSON))
	} else {
		body = defaultWebhookPayload(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := webhookHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

func templateFields(data Data) map[string]string {
	fields := map[string]string{
		"monitorName": data.MonitorName,
		"monitorType": data.MonitorType,
		"status":      fmt.Sprintf("%d", data.Status),
		"statusText":  data.StatusText,
		"statusCode":  fmt.Sprintf("%d", data.Status),
		"time":        data.Time.Format("2006-01-02 15:04:05"),
		"message":     data.Message,
		"address":     data.Address,
	}
	if data.FailureInfo != nil {
		fields["failureCount"] = fmt.Sprintf("%d", data.FailureInfo.Count)
		fields["firstFailureTime"] = data.FailureInfo.FirstFailureTime.Format("2006-01-02 15:04:05")
		fields["lastFailureTime"] = data.FailureInfo.LastFailureTime.Format("2006-01-02 15:04:05")
		fields["failureDuration"] = fmt.Sprintf("%d", data.FailureInfo.DurationMinutes)
	}
	return fields
}

// substitutePlaceholders replaces {field} tokens with their value,
// optionally escaping \ " \n \r \t so the result stays valid JSON
// when the caller's content type is JSON-flavored.
func substitutePlaceholders(tmpl string, fields map[string]string, escapeJSON bool) string {
	out := tmpl
	for key, val := range fields {
		v := val
		if escapeJSON {
			v = jsonEscape(v)
		}
		out = strings.ReplaceAll(out, "{"+key+"}", v)
	}
	return out
}

func jsonEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

func defaultWebhookPayload(data Data) []byte {
	payload := map[string]any{
		"event":     "status_change",
		"timestamp": data.Time.Format(time.RFC3339),
		"monitor": map[string]any{
			"name":        data.MonitorName,
			"type":        data.MonitorType,
			"status":      data.StatusText,
			"status_code": data.Status,
			"time":        data.Time.Format("2006-01-02 15:04:05"),
			"message":     data.Message,
			"address":     nullableString(data.Address),
		},
	}
	if data.FailureInfo != nil {
		payload["failure_info"] = map[string]any{
			"count":               data.FailureInfo.Count,
			"first_failure_time":  data.FailureInfo.FirstFailureTime.Format(time.RFC3339),
			"last_failure_time":   data.FailureInfo.LastFailureTime.Format(time.RFC3339),
			"duration_minutes":    data.FailureInfo.DurationMinutes,
		}
	} else {
		payload["failure_info"] = nil
	}
	b, _ := json.Marshal(payload)
	return b
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
