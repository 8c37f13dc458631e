package auth

import "errors"

// ErrNoCredentials indicates that no refresh token exists on disk for the
// active profile; the user has to log in before authenticated calls work.
var ErrNoCredentials = errors.New("no stored credentials, please login first (skyforge auth login)")

// ErrNoRefreshToken indicates a logout was requested while no refresh token
// is stored.
var ErrNoRefreshToken = errors.New("no refresh token stored, nothing to logout")
