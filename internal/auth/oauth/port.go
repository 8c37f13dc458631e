// Package oauth implements the browser-based authorization code capture used
// by the interactive login: probing a server-advertised candidate port list,
// standing up a one-shot local HTTP listener for the redirect, and handing
// the captured code back to the caller.
package oauth

import (
	"errors"
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"
)

// ErrPortUnavailable indicates every candidate redirect port is already
// bound by another process.
var ErrPortUnavailable = errors.New("no redirect port available")

// SelectFreePort probes candidates in order by binding a TCP listener to
// each and returns the first port that could be bound; the probe listener is
// released immediately. The probe binds all interfaces, same as the capture
// listener: localhost may resolve to either loopback stack, so the port must
// be free on both. No retry, no randomization: order matters so the outcome
// is deterministic.
func SelectFreePort(candidates []int) (int, error) {
	for _, port := range candidates {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			log.Debugf("redirect port %d unavailable: %v", port, err)
			continue
		}
		_ = ln.Close()
		return port, nil
	}
	return 0, ErrPortUnavailable
}
