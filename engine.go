package portalauth

import (
	"context"
	"time"

	"github.com/infound/portal-auth/session"
	"github.com/infound/portal-auth/token"
)

// Engine orchestrates the token codec and the session store behind the
// portal's authentication protocol. Build one with [New]; the engine holds
// no global state and owns nothing but its audit goroutine, released by
// [Engine.Close].
type Engine struct {
	config    Config
	codec     *token.Codec
	store     *session.Store
	directory CreatorDirectory
	audit     *auditDispatcher
	metrics   *Metrics
}

// Close flushes and stops the audit dispatcher. The Redis client is owned
// by the caller and is not closed here.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// GateConfig returns the gate settings the engine was built with, for the
// middleware package to enforce.
func (e *Engine) GateConfig() GateConfig {
	if e == nil {
		return GateConfig{}
	}
	cfg := e.config.Gate
	cfg.AllowPaths = append([]string(nil), cfg.AllowPaths...)
	return cfg
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Ping checks session-store reachability and reports round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}
	return e.store.Ping(ctx)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n uint64) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Add(id, n)
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	e.audit.Emit(ctx, event)
}
