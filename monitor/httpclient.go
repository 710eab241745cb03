package monitor

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"uptimeguard/config"
)

// sharedTransport backs the http and keyword executors; the https-cert
// executor dials TLS itself with the same resolver. DialContext resolves through a DNS-over-UDP resolver that
// honors an operator-configured server, falling back to a couple of
// public resolvers so a broken local resolv.conf doesn't take every
// monitor down with it.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialer := &net.Dialer{
			KeepAlive: 30 * time.Second,
			Resolver:  customResolver(),
		}
		return dialer.DialContext(ctx, network, addr)
	},
}

func customResolver() *net.Resolver {
	dnsServer := config.GlobalConfig.Monitor.DNSServer
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			d := net.Dialer{Timeout: 2 * time.Second}
			if dnsServer != "" {
				addr := dnsServer
				if !strings.Contains(addr, ":") {
					addr += ":53"
				}
				return d.DialContext(ctx, "udp", addr)
			}
			conn, err := d.DialContext(ctx, "udp", "1.1.1.1:53")
			if err == nil {
				return conn, nil
			}
			return d.DialContext(ctx, "udp", "223.5.5.5:53")
		},
	}
}

var (
	clientsOnce          sync.Once
	clientFollow         *http.Client
	clientNoRedirect     *http.Client
	clientFollowInsecure *http.Client
	clientNoRedirInsec   *http.Client
)

func initClients() {
	clientsOnce.Do(func() {
		clientFollow = &http.Client{Transport: sharedTransport, Timeout: 600 * time.Second}
		clientNoRedirect = &http.Client{
			Transport: sharedTransport,
			Timeout:   600 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
		insecureTransport := sharedTransport.Clone()
		insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		clientFollowInsecure = &http.Client{Transport: insecureTransport, Timeout: 600 * time.Second}
		clientNoRedirInsec = &http.Client{
			Transport: insecureTransport,
			Timeout:   600 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	})
}

// httpClientFor returns the shared client matching the requested
// redirect/TLS-verification policy. maxRedirects == 0 disables
// following; any positive value follows using Go's default cap since
// per-request redirect counts aren't exposed by net/http.
func httpClientFor(maxRedirects int, ignoreTLS bool) *http.Client {
	initClients()
	follow := maxRedirects != 0
	switch {
	case follow && !ignoreTLS:
		return clientFollow
	case follow && ignoreTLS:
		return clientFollowInsecure
	case !follow && !ignoreTLS:
		return clientNoRedirect
	default:
		return clientNoRedirInsec
	}
}
