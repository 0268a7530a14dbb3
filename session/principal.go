package session

// Principal is the user snapshot persisted per live session and hydrated
// onto a request after verification. It lives only for the duration of one
// request once hydrated; the store keeps the serialized copy.
//
// Field names mirror the portal's wire format (camelCase, jti for the
// session id) so snapshots written by other services stay readable.
type Principal struct {
	SessionID         string `json:"jti"`
	IFID              string `json:"ifId"`
	PlatformCreatorID string `json:"platformCreatorId"`
	Username          string `json:"platformCreatorUsername"`
	DisplayName       string `json:"platformCreatorDisplayName"`
	Email             string `json:"email"`
	WhatsApp          string `json:"whatsapp"`
}
