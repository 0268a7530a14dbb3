package portalauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/infound/portal-auth/session"
	"github.com/infound/portal-auth/token"
)

// VerifyToken runs the full verification protocol for one request and
// returns the hydrated request-scoped principal:
//
//  1. no token at all -> [ErrNoToken]
//  2. decode or signature failure -> [ErrTokenMalformed]
//  3. well-signed but past expiry -> [ErrTokenExpired]
//  4. session absent from the store -> [ErrSessionNotLive]; a valid
//     signature is never enough on its own, so logout and eviction revoke
//     tokens before their cryptographic expiry
//  5. store unreachable -> [ErrStoreUnavailable], failing closed
//
// Verification is single-shot: a failure is terminal for the request and is
// never retried here.
func (e *Engine) VerifyToken(ctx context.Context, raw string) (*Principal, error) {
	if e == nil || e.codec == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()

	if strings.TrimSpace(raw) == "" {
		e.metricInc(MetricVerifyMissing)
		return nil, ErrNoToken
	}

	claims, err := e.codec.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			e.metricInc(MetricVerifyExpired)
			return nil, ErrTokenExpired
		}
		e.metricInc(MetricVerifyMalformed)
		return nil, ErrTokenMalformed
	}

	principal, err := e.store.Get(ctx, claims.Username(), claims.SessionID())
	if err != nil {
		if errors.Is(err, session.ErrStoreUnavailable) {
			e.metricInc(MetricStoreUnavailable)
			e.emitAudit(ctx, AuditEvent{
				EventType: EventStoreUnavailable,
				Username:  claims.Username(),
				SessionID: claims.SessionID(),
				Success:   false,
				Error:     err.Error(),
			})
			return nil, err
		}
		// redis.Nil means logged out, evicted, or expired with the set;
		// an unreadable snapshot is treated the same way.
		e.metricInc(MetricVerifyNotLive)
		e.emitAudit(ctx, AuditEvent{
			EventType: EventTokenRejected,
			Username:  claims.Username(),
			SessionID: claims.SessionID(),
			Success:   false,
			Error:     ErrSessionNotLive.Error(),
		})
		return nil, ErrSessionNotLive
	}

	e.metricInc(MetricVerifySuccess)
	if e.metrics != nil {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}

	return principal, nil
}
