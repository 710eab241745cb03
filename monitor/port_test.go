package monitor

import (
	"context"
	"fmt"
	"net"
	"testing"
)

func TestPortExecutorRejectsInvalidPort(t *testing.T) {
	ex := &portExecutor{deps: Deps{}}
	cases := []int{0, -1, 65536, 100000}
	for _, port := range cases {
		cfg := fmt.Sprintf(`{"hostname":"example.com","port":%d}`, port)
		result := ex.Check(context.Background(), "m1", cfg)
		if result.Status != StatusDown {
			t.Fatalf("expected port %d to be rejected, got %v", port, result)
		}
		want := fmt.Sprintf("配置无效: 端口号 %d 不是有效的端口值", port)
		if result.Message != want {
			t.Fatalf("port %d: expected message %q, got %q", port, want, result.Message)
		}
	}
}

func TestPortExecutorConnectsSuccessfully(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start listener: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("failed to split listener address: %v", err)
	}

	ex := &portExecutor{deps: Deps{}}
	cfg := fmt.Sprintf(`{"hostname":%q,"port":%s}`, host, port)
	result := ex.Check(context.Background(), "m1", cfg)
	if result.Status != StatusUp {
		t.Fatalf("expected UP for a reachable port, got %v", result)
	}
}

func TestPortExecutorRequiresHostname(t *testing.T) {
	ex := &portExecutor{deps: Deps{}}
	result := ex.Check(context.Background(), "m1", `{"port":80}`)
	if result.Status != StatusDown {
		t.Fatalf("expected missing hostname to be DOWN, got %v", result)
	}
}
