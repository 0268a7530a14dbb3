package portalauth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type stubDirectory struct {
	records map[string]*CreatorRecord // keyed username:credential
}

func (d *stubDirectory) Put(username, credential string, record *CreatorRecord) {
	if d.records == nil {
		d.records = make(map[string]*CreatorRecord)
	}
	d.records[username+":"+credential] = record
}

func (d *stubDirectory) Authenticate(_ context.Context, username, credential string) (*CreatorRecord, error) {
	record, ok := d.records[username+":"+credential]
	if !ok {
		return nil, errors.New("creator not found")
	}
	return record, nil
}

func testRecord() *CreatorRecord {
	return &CreatorRecord{
		IFID:              "if-1001",
		PlatformCreatorID: "pc-77",
		Username:          "alice.creator",
		DisplayName:       "Alice",
		Email:             "alice@example.com",
		WhatsApp:          "+10000000001",
	}
}

func newEngineTest(t *testing.T, mutate func(*Config)) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := DefaultConfig()
	cfg.Token.Secret = []byte("engine-test-secret-0123456789abcd")
	if mutate != nil {
		mutate(&cfg)
	}

	directory := &stubDirectory{}
	directory.Put("alice.creator", "smp-001", testRecord())

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCreatorDirectory(directory).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	return engine, mr, func() {
		engine.Close()
		rdb.Close()
		mr.Close()
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	engine, _, done := newEngineTest(t, nil)
	defer done()
	ctx := context.Background()

	result, err := engine.Login(ctx, "alice.creator", "smp-001")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" || result.SessionID == "" {
		t.Fatalf("incomplete result: %+v", result)
	}
	if result.Header != "AccessToken" {
		t.Fatalf("header = %q, want AccessToken", result.Header)
	}

	principal, err := engine.VerifyToken(ctx, result.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.Username != "alice.creator" || principal.SessionID != result.SessionID {
		t.Fatalf("principal mismatch: %+v", principal)
	}
	if principal.IFID != "if-1001" || principal.PlatformCreatorID != "pc-77" {
		t.Fatalf("principal snapshot incomplete: %+v", principal)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("login success counter = %d, want 1", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricVerifySuccess] != 1 {
		t.Fatalf("verify success counter = %d, want 1", snap.Counters[MetricVerifySuccess])
	}
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	engine, _, done := newEngineTest(t, nil)
	defer done()
	ctx := context.Background()

	cases := []struct{ username, credential string }{
		{"alice.creator", "wrong"},
		{"nobody", "smp-001"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := engine.Login(ctx, tc.username, tc.credential); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("login(%q, %q) = %v, want ErrInvalidCredentials", tc.username, tc.credential, err)
		}
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLoginFailure] != uint64(len(cases)) {
		t.Fatalf("login failure counter = %d, want %d", snap.Counters[MetricLoginFailure], len(cases))
	}
}

func TestVerifyRejectionTaxonomy(t *testing.T) {
	engine, _, done := newEngineTest(t, nil)
	defer done()
	ctx := context.Background()

	if _, err := engine.VerifyToken(ctx, ""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("empty token = %v, want ErrNoToken", err)
	}
	if _, err := engine.VerifyToken(ctx, "   "); !errors.Is(err, ErrNoToken) {
		t.Fatalf("blank token = %v, want ErrNoToken", err)
	}
	if _, err := engine.VerifyToken(ctx, "not-a-token"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("garbage token = %v, want ErrTokenMalformed", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricVerifyMissing] != 2 {
		t.Fatalf("missing counter = %d, want 2", snap.Counters[MetricVerifyMissing])
	}
	if snap.Counters[MetricVerifyMalformed] != 1 {
		t.Fatalf("malformed counter = %d, want 1", snap.Counters[MetricVerifyMalformed])
	}
}

func TestVerifyRejectsRevokedSession(t *testing.T) {
	engine, _, done := newEngineTest(t, nil)
	defer done()
	ctx := context.Background()

	result, err := engine.Login(ctx, "alice.creator", "smp-001")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// The session disappears out from under a still-valid token.
	if err := engine.LogoutSession(ctx, "alice.creator", result.SessionID); err != nil {
		t.Fatalf("logout session: %v", err)
	}

	if _, err := engine.VerifyToken(ctx, result.Token); !errors.Is(err, ErrSessionNotLive) {
		t.Fatalf("verify = %v, want ErrSessionNotLive", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricVerifyNotLive] != 1 {
		t.Fatalf("not-live counter = %d, want 1", snap.Counters[MetricVerifyNotLive])
	}
}

func TestSixthLoginEvictsOldestSession(t *testing.T) {
	engine, _, done := newEngineTest(t, nil)
	defer done()
	ctx := context.Background()

	var results []*LoginResult
	for i := 0; i < 6; i++ {
		result, err := engine.Login(ctx, "alice.creator", "smp-001")
		if err != nil {
			t.Fatalf("login %d: %v", i+1, err)
		}
		results = append(results, result)
		// Session ids order by issuance time; keep logins distinct.
		time.Sleep(time.Millisecond)
	}

	count, err := engine.ActiveSessionCount(ctx, "alice.creator")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}

	if _, err := engine.VerifyToken(ctx, results[0].Token); !errors.Is(err, ErrSessionNotLive) {
		t.Fatalf("oldest token = %v, want ErrSessionNotLive", err)
	}
	for i := 1; i < 6; i++ {
		if _, err := engine.VerifyToken(ctx, results[i].Token); err != nil {
			t.Fatalf("token %d rejected: %v", i+1, err)
		}
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricSessionEvicted] != 1 {
		t.Fatalf("evicted counter = %d, want 1", snap.Counters[MetricSessionEvicted])
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	engine, _, done := newEngineTest(t, nil)
	defer done()
	ctx := context.Background()

	result, err := engine.Login(ctx, "alice.creator", "smp-001")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := engine.Logout(ctx, result.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := engine.VerifyToken(ctx, result.Token); !errors.Is(err, ErrSessionNotLive) {
		t.Fatalf("verify after logout = %v, want ErrSessionNotLive", err)
	}

	// Idempotent: logging out again is fine.
	if err := engine.Logout(ctx, result.Token); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestLogoutMalformedToken(t *testing.T) {
	engine, _, done := newEngineTest(t, nil)
	defer done()

	if err := engine.Logout(context.Background(), "garbage"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("logout = %v, want ErrTokenMalformed", err)
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	engine, _, done := newEngineTest(t, nil)
	defer done()
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 3; i++ {
		result, err := engine.Login(ctx, "alice.creator", "smp-001")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		tokens = append(tokens, result.Token)
		time.Sleep(time.Millisecond)
	}

	if err := engine.LogoutAll(ctx, "alice.creator"); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	for i, tok := range tokens {
		if _, err := engine.VerifyToken(ctx, tok); !errors.Is(err, ErrSessionNotLive) {
			t.Fatalf("token %d = %v, want ErrSessionNotLive", i+1, err)
		}
	}

	count, err := engine.ActiveSessionCount(ctx, "alice.creator")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestStoreOutageFailsClosed(t *testing.T) {
	engine, mr, done := newEngineTest(t, nil)
	defer done()
	ctx := context.Background()

	result, err := engine.Login(ctx, "alice.creator", "smp-001")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	mr.Close()

	if _, err := engine.VerifyToken(ctx, result.Token); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("verify = %v, want ErrStoreUnavailable", err)
	}
	if _, err := engine.Login(ctx, "alice.creator", "smp-001"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("login = %v, want ErrStoreUnavailable", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricStoreUnavailable] == 0 {
		t.Fatal("store unavailable counter not incremented")
	}
}

func TestActiveSessionIDsOrdered(t *testing.T) {
	engine, _, done := newEngineTest(t, nil)
	defer done()
	ctx := context.Background()

	var want []string
	for i := 0; i < 3; i++ {
		result, err := engine.Login(ctx, "alice.creator", "smp-001")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		want = append(want, result.SessionID)
		time.Sleep(time.Millisecond)
	}

	ids, err := engine.ActiveSessionIDs(ctx, "alice.creator")
	if err != nil {
		t.Fatalf("session ids: %v", err)
	}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestAuditTrailRecordsLifecycle(t *testing.T) {
	sink := NewChannelSink(64)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := DefaultConfig()
	cfg.Token.Secret = []byte("engine-test-secret-0123456789abcd")
	cfg.Audit.DropIfFull = false

	directory := &stubDirectory{}
	directory.Put("alice.creator", "smp-001", testRecord())

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCreatorDirectory(directory).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	ctx := WithClientIP(context.Background(), "203.0.113.7")

	if _, err := engine.Login(ctx, "alice.creator", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login = %v, want ErrInvalidCredentials", err)
	}
	result, err := engine.Login(ctx, "alice.creator", "smp-001")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := engine.Logout(ctx, result.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	engine.Close() // flushes the dispatcher

	want := []string{EventLoginFailure, EventLoginSuccess, EventLogout}
	for _, wantType := range want {
		select {
		case event := <-sink.Events():
			if event.EventType != wantType {
				t.Fatalf("event type = %q, want %q", event.EventType, wantType)
			}
			if event.IP != "203.0.113.7" {
				t.Fatalf("event ip = %q, want 203.0.113.7", event.IP)
			}
			if event.Timestamp.IsZero() {
				t.Fatal("event timestamp not stamped")
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q event", wantType)
		}
	}
}
