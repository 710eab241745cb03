package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWeChatDispatchSendsTitleAndContent(t *testing.T) {
	var captured map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg, _ := json.Marshal(WeChatConfig{PushURL: srv.URL})
	err := WeChatDispatcher{}.Dispatch(context.Background(), string(cfg), Data{
		MonitorName: "api",
		StatusText:  "异常",
		Message:     "HTTP 500",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured["content"] != "HTTP 500" {
		t.Fatalf("expected default content to fall back to the message, got %q", captured["content"])
	}
	if captured["title"] == "" {
		t.Fatalf("expected a default title to be built from monitor name/status")
	}
}

func TestWeChatDispatchRequiresPushURL(t *testing.T) {
	err := WeChatDispatcher{}.Dispatch(context.Background(), `{}`, Data{})
	if err == nil {
		t.Fatalf("expected an error when pushUrl is missing")
	}
}

func TestWeChatDispatchFailsOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg, _ := json.Marshal(WeChatConfig{PushURL: srv.URL})
	err := WeChatDispatcher{}.Dispatch(context.Background(), string(cfg), Data{})
	if err == nil {
		t.Fatalf("expected an error on a 502 response")
	}
}
