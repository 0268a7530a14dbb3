// Package portalauth implements the creator portal's access-token lifecycle:
// HS256 token issuance, a Redis-backed session store with a bounded per-user
// session count and oldest-first eviction, and the verification protocol the
// HTTP gate enforces on every request.
//
// # Protocol
//
// Login authenticates against an injected [CreatorDirectory], mints a
// creation-ordered session id, issues the token, and stores the principal
// snapshot. Verification is trust-but-verify: the signature proves
// authenticity, session-store membership proves current liveness, so the
// server can revoke (logout, eviction, TTL) long before a token's
// cryptographic expiry.
//
// # Construction
//
// Everything is dependency-injected through [New]:
//
//	engine, err := portalauth.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithCreatorDirectory(dir).
//		WithAuditSink(sink).
//		Build()
//
// The engine owns only its audit goroutine; Close releases it. The
// middleware package adapts the engine to net/http.
package portalauth
