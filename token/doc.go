// Package token implements the portal's access-token codec: HS256-signed
// JWTs carrying a fixed claim schema (subject username, session id, creator
// id, optional extension map) with a fixed expiry window.
//
// The codec is a pure function of its inputs, the wall clock, and the shared
// secret. It never touches the session store; liveness is the caller's
// concern. Decode failures are modeled as sentinel error values
// ([ErrMalformed], [ErrExpired]) so callers are forced to handle the invalid
// case explicitly.
package token
