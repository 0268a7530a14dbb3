// Package session implements the Redis-backed session store that tracks
// which access tokens are currently live, per user.
//
// # Layout
//
// One Redis hash per username at <prefix>:creator_user:<username>. Fields
// are session ids (lexically ordered by issuance), values are JSON
// [Principal] snapshots. The whole hash carries a single TTL refreshed by
// every [Store.Put].
//
// # Invariant
//
// A user never holds more than MaxPerUser live sessions after Put returns.
// Put runs insert, oldest-first trim, and TTL refresh as one server-side
// script, so the bound holds under concurrent logins for the same user.
//
// Token signatures prove authenticity; membership here proves current
// liveness. Revocation works by removal, never by token invalidation.
package session
