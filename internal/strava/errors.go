package strava

import (
	"errors"
	"fmt"
)

// AuthError reasons.
const (
	ReasonNoAccessToken  = "no access token"
	ReasonNoRefreshToken = "no refresh token"
	ReasonRefreshFailed  = "refresh failed"
	// ReasonUnauthorized is a 401 on the retry with freshly refreshed tokens.
	// The tokens themselves are still valid; that one resource was refused.
	ReasonUnauthorized = "unauthorized after refresh"
)

// AuthError means the request could not be authorized, even after the one
// permitted refresh.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is or wraps an *AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// LoggedOut reports whether the credentials are gone, so every later request
// would fail the same way.
func (e *AuthError) LoggedOut() bool {
	switch e.Reason {
	case ReasonNoAccessToken, ReasonNoRefreshToken, ReasonRefreshFailed:
		return true
	}
	return false
}

// IsLoggedOut reports whether err wraps an AuthError that lost the credentials.
func IsLoggedOut(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.LoggedOut()
}

// HTTPError is any non-2xx answer other than an authorization failure.
// It is never retried automatically.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}
