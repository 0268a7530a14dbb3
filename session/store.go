package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable is wrapped around every Redis transport failure so
// callers can tell infrastructure faults apart from ordinary misses.
var ErrStoreUnavailable = errors.New("session store unavailable")

// putAndTrimScript inserts the new session field and evicts the lexically
// smallest field names until the hash is back at the per-user cap, then
// refreshes the TTL of the whole hash. Session ids encode issuance order, so
// lexically smallest means oldest-issued. Running as one script keeps the
// at-most-N invariant intact under concurrent logins for the same user.
const putAndTrimScript = `
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
local fields = redis.call("HKEYS", KEYS[1])
local evicted = {}
local max = tonumber(ARGV[3])
if #fields > max then
  table.sort(fields)
  local excess = #fields - max
  for i = 1, excess do
    redis.call("HDEL", KEYS[1], fields[i])
    evicted[#evicted + 1] = fields[i]
  end
end
redis.call("EXPIRE", KEYS[1], tonumber(ARGV[4]))
return evicted
`

var putAndTrimLua = redis.NewScript(putAndTrimScript)

// Store tracks the live sessions of each portal user in Redis: one hash per
// username, keyed session id -> serialized principal snapshot, with a single
// TTL on the whole hash that is refreshed by every Put.
type Store struct {
	redis      redis.UniversalClient
	prefix     string
	maxPerUser int
	ttl        time.Duration
}

// Config controls the Redis key namespace and the retention policy.
type Config struct {
	// Prefix is the deployment-specific key namespace prefix.
	Prefix string

	// MaxPerUser caps the live sessions kept per username. Every Put that
	// would exceed it evicts the oldest-issued sessions first.
	MaxPerUser int

	// TTL is applied to the whole per-user hash and refreshed on each Put.
	TTL time.Duration
}

// NewStore creates a session [Store] backed by the given Redis client.
func NewStore(rdb redis.UniversalClient, cfg Config) *Store {
	return &Store{
		redis:      rdb,
		prefix:     cfg.Prefix,
		maxPerUser: cfg.MaxPerUser,
		ttl:        cfg.TTL,
	}
}

func (s *Store) key(username string) string {
	return s.prefix + ":creator_user:" + username
}

// Put inserts p under the user's session set, evicting the oldest-issued
// sessions when the set would exceed the per-user cap, and refreshes the
// whole set's TTL. Insert, trim, and expire run as a single Redis script.
// It returns the evicted session ids, oldest first.
func (s *Store) Put(ctx context.Context, username string, p *Principal) ([]string, error) {
	if p == nil || p.SessionID == "" {
		return nil, errors.New("principal with session id required")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	ttlSeconds := int64(s.ttl / time.Second)
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	result, err := putAndTrimLua.Run(
		ctx,
		s.redis,
		[]string{s.key(username)},
		p.SessionID,
		data,
		s.maxPerUser,
		ttlSeconds,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: invalid trim script response", ErrStoreUnavailable)
	}

	evicted := make([]string, 0, len(parts))
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			evicted = append(evicted, v)
		case []byte:
			evicted = append(evicted, string(v))
		}
	}

	return evicted, nil
}

// Exists reports whether the session is still a live member of the user's
// session set. Used as the liveness gate during verification.
func (s *Store) Exists(ctx context.Context, username, sessionID string) (bool, error) {
	ok, err := s.redis.HExists(ctx, s.key(username), sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ok, nil
}

// Get fetches the stored principal snapshot for a session. A session absent
// from the store yields redis.Nil, covering logout, eviction, and
// expiry-by-TTL alike.
func (s *Store) Get(ctx context.Context, username, sessionID string) (*Principal, error) {
	data, err := s.redis.HGet(ctx, s.key(username), sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var p Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.SessionID == "" {
		p.SessionID = sessionID
	}

	return &p, nil
}

// Delete removes one session from the user's set. Deleting a session that
// is already gone is not an error.
func (s *Store) Delete(ctx context.Context, username, sessionID string) error {
	if err := s.redis.HDel(ctx, s.key(username), sessionID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteAllForUser drops the user's whole session set.
func (s *Store) DeleteAllForUser(ctx context.Context, username string) error {
	if err := s.redis.Del(ctx, s.key(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Count returns the number of live sessions for a user.
func (s *Store) Count(ctx context.Context, username string) (int, error) {
	n, err := s.redis.HLen(ctx, s.key(username)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return int(n), nil
}

// SessionIDs returns the user's live session ids in issuance order.
func (s *Store) SessionIDs(ctx context.Context, username string) ([]string, error) {
	ids, err := s.redis.HKeys(ctx, s.key(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// TTL returns the remaining lifetime of the user's session set.
func (s *Store) TTL(ctx context.Context, username string) (time.Duration, error) {
	d, err := s.redis.TTL(ctx, s.key(username)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return d, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
