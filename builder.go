package portalauth

import (
	"errors"

	"github.com/infound/portal-auth/session"
	"github.com/infound/portal-auth/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine] from explicit dependencies. Nothing here is
// ambient: the Redis client, the creator directory, and the audit sink are
// all injected, and the caller keeps ownership of the Redis client's
// lifecycle.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	directory CreatorDirectory
	auditSink AuditSink

	built bool
}

// New returns a [Builder] preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCreatorDirectory sets the credential backend used by Login. An engine
// built without one can still verify and revoke, but Login returns
// [ErrEngineNotReady].
func (b *Builder) WithCreatorDirectory(dir CreatorDirectory) *Builder {
	b.directory = dir
	return b
}

// WithAuditSink sets the sink receiving audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and returns a ready [Engine]. A builder
// builds exactly once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	b.config.applyDefaults()
	if err := b.config.validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		Secret: b.config.Token.Secret,
		TTL:    b.config.Token.TTL,
		Issuer: b.config.Token.Issuer,
		Leeway: b.config.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	store := session.NewStore(b.redis, session.Config{
		Prefix:     b.config.Session.RedisPrefix,
		MaxPerUser: b.config.Session.MaxPerUser,
		TTL:        b.config.Session.TTL,
	})

	b.built = true

	return &Engine{
		config:    b.config,
		codec:     codec,
		store:     store,
		directory: b.directory,
		audit:     newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:   NewMetrics(b.config.Metrics),
	}, nil
}
