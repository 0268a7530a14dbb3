package portalauth

import (
	"context"
	"time"

	"github.com/infound/portal-auth/internal"
)

// Login authenticates the credential pair against the creator directory,
// issues a signed access token with a fresh session id, and records the
// principal snapshot in the session store. When the user already holds the
// maximum number of live sessions the oldest one is evicted atomically with
// the insert.
func (e *Engine) Login(ctx context.Context, username, credential string) (*LoginResult, error) {
	if e == nil || e.codec == nil || e.store == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.directory.Authenticate(ctx, username, credential)
	if err != nil || record == nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType: EventLoginFailure,
			Username:  username,
			Success:   false,
			Error:     ErrInvalidCredentials.Error(),
		})
		// Directory rejections are deliberately not distinguished to the
		// caller; the reason stays in the audit trail.
		return nil, ErrInvalidCredentials
	}

	sessionID := internal.NewSessionID(time.Now())

	tok, err := e.codec.Issue(record.Username, sessionID, record.PlatformCreatorID, nil)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	principal := &Principal{
		SessionID:         sessionID,
		IFID:              record.IFID,
		PlatformCreatorID: record.PlatformCreatorID,
		Username:          record.Username,
		DisplayName:       record.DisplayName,
		Email:             record.Email,
		WhatsApp:          record.WhatsApp,
	}

	evicted, err := e.store.Put(ctx, record.Username, principal)
	if err != nil {
		e.metricInc(MetricStoreUnavailable)
		e.emitAudit(ctx, AuditEvent{
			EventType: EventStoreUnavailable,
			Username:  record.Username,
			SessionID: sessionID,
			Success:   false,
			Error:     err.Error(),
		})
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.metricAdd(MetricSessionEvicted, uint64(len(evicted)))
	e.emitAudit(ctx, AuditEvent{
		EventType: EventLoginSuccess,
		Username:  record.Username,
		SessionID: sessionID,
		Success:   true,
	})
	for _, old := range evicted {
		e.emitAudit(ctx, AuditEvent{
			EventType: EventSessionEvicted,
			Username:  record.Username,
			SessionID: old,
			Success:   true,
			Metadata:  map[string]string{"replaced_by": sessionID},
		})
	}

	return &LoginResult{
		Token:     tok,
		SessionID: sessionID,
		Header:    e.config.Gate.Header,
		Principal: principal,
	}, nil
}
