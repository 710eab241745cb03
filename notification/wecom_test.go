package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWeComDispatchSendsMarkdownPayload(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(wecomResponse{ErrCode: 0})
	}))
	defer srv.Close()

	cfg, _ := json.Marshal(WeComConfig{WebhookURL: srv.URL})
	err := WeComDispatcher{}.Dispatch(context.Background(), string(cfg), Data{
		MonitorName: "api",
		StatusText:  "异常",
		Message:     "HTTP 500",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured["msgtype"] != "markdown" {
		t.Fatalf("expected a markdown message type, got %v", captured["msgtype"])
	}
}

func TestWeComDispatchFailsOnBusinessError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wecomResponse{ErrCode: 93000, ErrMsg: "invalid webhook url"})
	}))
	defer srv.Close()

	cfg, _ := json.Marshal(WeComConfig{WebhookURL: srv.URL})
	err := WeComDispatcher{}.Dispatch(context.Background(), string(cfg), Data{})
	if err == nil {
		t.Fatalf("expected an error when the webhook reports a non-zero errcode")
	}
}

func TestWeComDispatchRequiresWebhookURL(t *testing.T) {
	err := WeComDispatcher{}.Dispatch(context.Background(), `{}`, Data{})
	if err == nil {
		t.Fatalf("expected an error when webhookUrl is missing")
	}
}
