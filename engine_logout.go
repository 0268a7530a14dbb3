package portalauth

import (
	"context"
	"errors"

	"github.com/infound/portal-auth/token"
)

// Logout revokes the session referenced by the presented token. The token
// must still decode, but an expired signature window is accepted: a client
// asking to log out an already-expired token is a no-op, not an error.
func (e *Engine) Logout(ctx context.Context, raw string) error {
	if e == nil || e.codec == nil || e.store == nil {
		return ErrEngineNotReady
	}

	claims, err := e.codec.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil
		}
		return ErrTokenMalformed
	}

	return e.LogoutSession(ctx, claims.Username(), claims.SessionID())
}

// LogoutSession removes one session from the store. Idempotent.
func (e *Engine) LogoutSession(ctx context.Context, username, sessionID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if err := e.store.Delete(ctx, username, sessionID); err != nil {
		e.metricInc(MetricStoreUnavailable)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditEvent{
		EventType: EventLogout,
		Username:  username,
		SessionID: sessionID,
		Success:   true,
	})
	return nil
}

// LogoutAll revokes every live session of one user.
func (e *Engine) LogoutAll(ctx context.Context, username string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if err := e.store.DeleteAllForUser(ctx, username); err != nil {
		e.metricInc(MetricStoreUnavailable)
		return err
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, AuditEvent{
		EventType: EventLogoutAll,
		Username:  username,
		Success:   true,
	})
	return nil
}
