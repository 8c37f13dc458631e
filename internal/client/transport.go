package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/skyforge-project/skyforge-cli/internal/config"
	"golang.org/x/net/proxy"
)

// newTransport builds the HTTP transport for the client, applying the
// configured TLS verification mode and optional proxy. Supports socks5,
// http and https proxy schemes.
func newTransport(cfg *config.Config) (*http.Transport, error) {
	transport := &http.Transport{}

	tlsConfig, err := newTLSConfig(cfg.Verify)
	if err != nil {
		return nil, err
	}
	transport.TLSClientConfig = tlsConfig

	if cfg.ProxyURL == "" {
		return transport, nil
	}

	proxyURL, err := url.Parse(cfg.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy-url %q: %w", cfg.ProxyURL, err)
	}

	switch proxyURL.Scheme {
	case "socks5":
		var proxyAuth *proxy.Auth
		if proxyURL.User != nil {
			password, _ := proxyURL.User.Password()
			proxyAuth = &proxy.Auth{User: proxyURL.User.Username(), Password: password}
		}
		dialer, errSOCKS5 := proxy.SOCKS5("tcp", proxyURL.Host, proxyAuth, proxy.Direct)
		if errSOCKS5 != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", errSOCKS5)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	case "http", "https":
		transport.Proxy = http.ProxyURL(proxyURL)
	default:
		log.Warnf("unsupported proxy scheme %q, proxy disabled", proxyURL.Scheme)
	}

	return transport, nil
}

// newTLSConfig interprets the verify setting: "true" (or empty) verifies with
// system roots, "false" disables verification, anything else is a CA bundle
// path.
func newTLSConfig(verify string) (*tls.Config, error) {
	switch verify {
	case "", "true":
		return nil, nil
	case "false":
		return &tls.Config{InsecureSkipVerify: true}, nil
	default:
		pem, err := os.ReadFile(verify)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA bundle %s: %w", verify, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA bundle %s", verify)
		}
		return &tls.Config{RootCAs: pool}, nil
	}
}
