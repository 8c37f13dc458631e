package oauth

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

type captureResult struct {
	code string
	err  error
}

// startCapture runs Capture in the background and returns its result
// channel once the listener is accepting connections.
func startCapture(t *testing.T, port int, timeout time.Duration) <-chan captureResult {
	t.Helper()

	done := make(chan captureResult, 1)
	go func() {
		code, err := Capture(port, timeout)
		done <- captureResult{code: code, err: err}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return done
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("capture listener never came up")
	return done
}

func redirect(t *testing.T, port int, query string) *http.Response {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s", port, query))
	if err != nil {
		t.Fatalf("redirect request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCaptureReturnsCode(t *testing.T) {
	port := freePort(t)
	done := startCapture(t, port, DefaultCaptureTimeout)

	resp := redirect(t, port, "code=ABC123&state=xyz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("redirect response status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("redirect response Content-Type = %q, want text/html", ct)
	}

	res := <-done
	if res.err != nil {
		t.Fatalf("Capture() error = %v", res.err)
	}
	if res.code != "ABC123" {
		t.Errorf("Capture() = %q, want %q", res.code, "ABC123")
	}
}

func TestCaptureReachableOnIPv6Loopback(t *testing.T) {
	// localhost resolves to ::1 on some hosts; the listener must answer
	// there too, not only on 127.0.0.1.
	probe, err := net.Listen("tcp6", "[::1]:0")
	if err != nil {
		t.Skipf("IPv6 loopback unavailable: %v", err)
	}
	_ = probe.Close()

	port := freePort(t)
	done := startCapture(t, port, DefaultCaptureTimeout)

	resp, err := http.Get(fmt.Sprintf("http://[::1]:%d/callback?code=V6CODE", port))
	if err != nil {
		t.Fatalf("IPv6 redirect request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	res := <-done
	if res.err != nil {
		t.Fatalf("Capture() error = %v", res.err)
	}
	if res.code != "V6CODE" {
		t.Errorf("Capture() = %q, want %q", res.code, "V6CODE")
	}
}

func TestCapturePortRebindableAfterReturn(t *testing.T) {
	port := freePort(t)
	done := startCapture(t, port, DefaultCaptureTimeout)

	redirect(t, port, "code=ABC123")
	if res := <-done; res.err != nil {
		t.Fatalf("Capture() error = %v", res.err)
	}

	// Teardown must release the port on return.
	deadline := time.Now().Add(2 * time.Second)
	for {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			_ = ln.Close()
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("port %d still bound after Capture returned: %v", port, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCaptureDeniedAuthorization(t *testing.T) {
	port := freePort(t)
	done := startCapture(t, port, DefaultCaptureTimeout)

	redirect(t, port, "error=access_denied&error_description=user+denied+access")

	res := <-done
	if !errors.Is(res.err, ErrNoCodeReceived) {
		t.Fatalf("Capture() error = %v, want ErrNoCodeReceived", res.err)
	}
	if !strings.Contains(res.err.Error(), "user denied access") {
		t.Errorf("Capture() error = %q, want it to carry the error description", res.err)
	}
}

func TestCaptureRedirectWithoutCode(t *testing.T) {
	port := freePort(t)
	done := startCapture(t, port, DefaultCaptureTimeout)

	redirect(t, port, "state=xyz")

	res := <-done
	if !errors.Is(res.err, ErrNoCodeReceived) {
		t.Fatalf("Capture() error = %v, want ErrNoCodeReceived", res.err)
	}
}

func TestCaptureTimeout(t *testing.T) {
	port := freePort(t)
	done := startCapture(t, port, 200*time.Millisecond)

	select {
	case res := <-done:
		if !errors.Is(res.err, ErrNoCodeReceived) {
			t.Fatalf("Capture() error = %v, want ErrNoCodeReceived", res.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Capture() did not time out")
	}
}
