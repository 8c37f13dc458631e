package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// refreshMargin is the safety window before the exp claim inside which the
// access token is refreshed rather than used.
const refreshMargin = 10 * time.Second

// needsRefresh reports whether the access token must be renewed before use:
// true when the token is absent, undecodable, carries no exp claim, or its
// exp claim is within refreshMargin of now.
//
// The claim is decoded without verifying the token's signature. That is
// deliberate: the client only uses exp to decide when to refresh and performs
// no authorization itself; the server remains the sole trust boundary.
func needsRefresh(accessToken string, now time.Time) bool {
	if accessToken == "" {
		return true
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.Time.After(now.Add(refreshMargin))
}
