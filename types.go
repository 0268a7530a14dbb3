package portalauth

import (
	"context"

	"github.com/infound/portal-auth/session"
)

// Principal is the authenticated identity resolved for a single request.
// It is request-scoped: attached after verification, never persisted beyond
// the request, never shared across requests.
type Principal = session.Principal

// CreatorRecord is the directory's view of one creator account, used to
// build the principal snapshot at login.
type CreatorRecord struct {
	IFID              string
	PlatformCreatorID string
	Username          string
	DisplayName       string
	Email             string
	WhatsApp          string
}

// CreatorDirectory is the interface callers implement to integrate the
// engine with their creator database. Authenticate returns the record for a
// valid (username, credential) pair and any error otherwise; the engine
// surfaces every rejection uniformly as [ErrInvalidCredentials].
type CreatorDirectory interface {
	Authenticate(ctx context.Context, username, credential string) (*CreatorRecord, error)
}

// LoginResult is returned by [Engine.Login]. Header names the HTTP header
// the client must echo the token back in on subsequent requests.
type LoginResult struct {
	Token     string
	SessionID string
	Header    string
	Principal *Principal
}
