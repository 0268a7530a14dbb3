package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned by [Codec.Verify] for any token that cannot be
// decoded or whose signature does not verify. Malformed input is an expected
// outcome of verification, not an exceptional one.
var ErrMalformed = errors.New("malformed or unsigned access token")

// ErrExpired is returned by [Codec.Verify] when the token decodes and the
// signature verifies but the embedded expiry has passed.
var ErrExpired = errors.New("access token expired")

const maxLeeway = 2 * time.Minute

// Config controls token issuance and verification.
type Config struct {
	// Secret is the HMAC-SHA256 signing key shared by all portal instances.
	Secret []byte

	// TTL is the fixed lifetime embedded into every issued token.
	TTL time.Duration

	// Issuer, when set, is embedded at issuance and enforced at verification.
	Issuer string

	// Leeway tolerates small clock drift between issuer and verifier.
	Leeway time.Duration
}

// Claims is the fixed claim schema carried by portal access tokens. The
// username travels as the registered subject and the session id as the
// registered token id (jti); both are load-bearing for the session-store
// liveness check and are required by [Codec.Verify].
type Claims struct {
	CreatorID string            `json:"creator_id,omitempty"`
	Ext       map[string]string `json:"ext,omitempty"`
	jwt.RegisteredClaims
}

// Username returns the subject claim.
func (c *Claims) Username() string { return c.Subject }

// SessionID returns the jti claim.
func (c *Claims) SessionID() string { return c.ID }

// Codec signs and verifies portal access tokens with a symmetric secret.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a ready [Codec].
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid token TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, errors.New("invalid token leeway configuration")
	}

	return &Codec{config: cfg}, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.config.TTL }

// Issue signs a new access token for username with the given session id.
// Expiry is always now + TTL; ext is an opaque passthrough claim map.
func (c *Codec) Issue(username, sessionID, creatorID string, ext map[string]string) (string, error) {
	if username == "" {
		return "", errors.New("username required")
	}
	if sessionID == "" {
		return "", errors.New("session id required")
	}

	now := time.Now()
	claims := Claims{
		CreatorID: creatorID,
		Ext:       ext,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Secret)
}

// Verify decodes raw and checks signature and expiry. It distinguishes only
// two failure outcomes: [ErrExpired] for a well-signed token past its expiry
// and [ErrMalformed] for everything else, including tokens whose subject or
// jti claim is missing even when the signature verifies.
func (c *Codec) Verify(raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject or session id claim", ErrMalformed)
	}

	return claims, nil
}
