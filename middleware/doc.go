// Package middleware adapts the portalauth engine to net/http: an auth gate
// that short-circuits allow-listed paths, verifies the access-token header
// on everything else, and attaches the resolved principal to the request
// context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into engine calls. It does NOT
// implement authentication logic itself; every decision is delegated to
// Engine.VerifyToken.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to the engine).
//   - Access Redis (the engine handles I/O).
//   - Make authorization decisions beyond pass/reject.
package middleware
