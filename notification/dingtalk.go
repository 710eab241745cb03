package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DingTalkConfig is the decoded channel config for a DingTalk custom
// robot webhook. Secret is optional; when present the request is signed
// per DingTalk's "加签" scheme instead of relying on an IP allowlist.
type DingTalkConfig struct {
	WebhookURL string `json:"webhookUrl"`
	Secret     string `json:"secret"`
}

type dingtalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

var dingtalkHTTPClient = &http.Client{Timeout: 10 * time.Second}

type DingTalkDispatcher struct{}

func (DingTalkDispatcher) Dispatch(ctx context.Context, rawConfig string, data Data) error {
	var cfg DingTalkConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return fmt.Errorf("invalid dingtalk channel config: %w", err)
	}
	if cfg.WebhookURL == "" {
		return fmt.Errorf("dingtalk channel missing webhookUrl")
	}

	target := cfg.WebhookURL
	if cfg.Secret != "" {
		signed, err := signDingTalkURL(cfg.WebhookURL, cfg.Secret, time.Now())
		if err != nil {
			return err
		}
		target = signed
	}

	title := fmt.Sprintf("%s - %s", data.MonitorName, data.StatusText)
	body, err := json.Marshal(map[string]any{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"title": title,
			"text":  fmt.Sprintf("#### %s\n\n%s", title, data.Message),
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := dingtalkHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dingtalk webhook responded with status %d", resp.StatusCode)
	}

	var parsed dingtalkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		if parsed.ErrCode != 0 {
			return fmt.Errorf("dingtalk webhook error %d: %s", parsed.ErrCode, parsed.ErrMsg)
		}
	}
	return nil
}

// signDingTalkURL appends timestamp and sign query parameters computed
// as base64(HMAC_SHA256(secret, "<timestamp>\n<secret>")).
func signDingTalkURL(webhookURL, secret string, now time.Time) (string, error) {
	ts := now.UnixMilli()
	stringToSign := fmt.Sprintf("%d\n%s", ts, secret)

	mac := hmac.New(sha256.New, []byte(secret))
	if _, err := mac.Write([]byte(stringToSign)); err != nil {
		return "", err
	}
	sign := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	sep := "?"
	if bytes.ContainsRune([]byte(webhookURL), '?') {
		sep = "&"
	}
	return fmt.Sprintf("%s%stimestamp=%d&sign=%s", webhookURL, sep, ts, url.QueryEscape(sign)), nil
}
