package portalauth

import "context"

// ActiveSessionIDs returns the user's live session ids in issuance order.
func (e *Engine) ActiveSessionIDs(ctx context.Context, username string) ([]string, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	return e.store.SessionIDs(ctx, username)
}

// ActiveSessionCount returns how many live sessions the user holds.
func (e *Engine) ActiveSessionCount(ctx context.Context, username string) (int, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}
	return e.store.Count(ctx, username)
}
