package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WeChatConfig is the decoded channel config for a WeChat push channel.
// TitleTemplate/ContentTemplate accept the same {field} placeholders as
// webhook body templates; both fall back to a sensible default when unset.
type WeChatConfig struct {
	PushURL         string `json:"pushUrl"`
	TitleTemplate   string `json:"titleTemplate"`
	ContentTemplate string `json:"contentTemplate"`
}

var wechatHTTPClient = &http.Client{Timeout: 10 * time.Second}

type WeChatDispatcher struct{}

func (WeChatDispatcher) Dispatch(ctx context.Context, rawConfig string, data Data) error {
	var cfg WeChatConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return fmt.Errorf("invalid wechat channel config: %w", err)
	}
	if cfg.PushURL == "" {
		return fmt.Errorf("wechat channel missing pushUrl")
	}

	fields := templateFields(data)

	title := cfg.TitleTemplate
	if title == "" {
		title = fmt.Sprintf("%s - %s", data.MonitorName, data.StatusText)
	} else {
		title = substitutePlaceholders(title, fields, true)
	}

	content := cfg.ContentTemplate
	if content == "" {
		content = data.Message
	} else {
		content = substitutePlaceholders(content, fields, true)
	}

	body, err := json.Marshal(map[string]string{
		"title":   title,
		"content": content,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.PushURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := wechatHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("wechat push responded with status %d", resp.StatusCode)
	}
	return nil
}
