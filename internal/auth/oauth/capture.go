package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultCaptureTimeout bounds how long Capture waits for the browser
// redirect before giving up.
const DefaultCaptureTimeout = 10 * time.Minute

// ErrNoCodeReceived indicates the capture finished without an authorization
// code: the redirect either never arrived or carried an error instead.
var ErrNoCodeReceived = errors.New("no authorization code received")

// result is what one redirect request yields.
type result struct {
	code             string
	errorDescription string
}

// Capture binds an HTTP listener on port, serves exactly one GET request on
// any path, and returns the code query parameter it carried. The browser is
// shown a color-coded acknowledgment page: success when a code is present,
// an error panel embedding error_description otherwise. The listener is torn
// down on every exit path; the port is free again by the time Capture
// returns. A redirect without a code, or no redirect within timeout, yields
// ErrNoCodeReceived.
func Capture(port int, timeout time.Duration) (string, error) {
	// Bind all interfaces: the redirect URI says localhost, which resolves
	// to ::1 on some hosts and 127.0.0.1 on others.
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", fmt.Errorf("failed to bind redirect port %d: %w", port, err)
	}

	resultCh := make(chan result, 1)
	srv := &http.Server{
		Handler:      http.HandlerFunc(makeHandler(resultCh)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	defer func() {
		_ = srv.Close()
	}()

	go func() {
		if errServe := srv.Serve(ln); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.Debugf("redirect listener stopped: %v", errServe)
		}
	}()

	select {
	case res := <-resultCh:
		// Let the in-flight response reach the browser before the socket
		// goes away.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)

		if res.code == "" {
			if res.errorDescription != "" {
				return "", fmt.Errorf("%w: %s", ErrNoCodeReceived, res.errorDescription)
			}
			return "", ErrNoCodeReceived
		}
		return res.code, nil
	case <-time.After(timeout):
		return "", ErrNoCodeReceived
	}
}

// makeHandler serves the single redirect request. Only the first request is
// consumed; the listener itself goes away right after, so later requests can
// at most race the shutdown.
func makeHandler(resultCh chan result) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		res := result{
			code:             query.Get("code"),
			errorDescription: query.Get("error_description"),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if res.code != "" {
			_, _ = w.Write([]byte(successHTML))
		} else {
			log.Debugf("redirect carried no code (error_description=%q)", res.errorDescription)
			_, _ = w.Write([]byte(renderErrorHTML(res.errorDescription)))
		}

		select {
		case resultCh <- res:
		default:
		}
	}
}
