package portalauth

import (
	"errors"

	"github.com/infound/portal-auth/session"
)

var (
	// ErrNoToken is returned when a request carried no access token at all.
	ErrNoToken = errors.New("no access token")
	// ErrTokenMalformed is returned for tokens that fail decoding or
	// signature verification, or that lack the required claims.
	ErrTokenMalformed = errors.New("invalid access token")
	// ErrTokenExpired is returned for well-signed tokens past their expiry.
	ErrTokenExpired = errors.New("access token expired")
	// ErrSessionNotLive is returned when a cryptographically valid token
	// references a session that is no longer in the store: logged out,
	// evicted by the per-user cap, or expired with the whole session set.
	ErrSessionNotLive = errors.New("session logged out or exceeded the limit")
	// ErrInvalidCredentials is returned by Login for any directory rejection.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEngineNotReady is returned when the engine was not fully built.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ErrStoreUnavailable marks session-store infrastructure faults. It is the
// store package's sentinel re-exported so callers need only this package to
// classify verification outcomes.
var ErrStoreUnavailable = session.ErrStoreUnavailable
