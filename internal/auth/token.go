package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims are the signed token contents. Subject carries the principal id.
// Nonce is the session nonce suffixed with the token type, so an access token
// and its sibling refresh token share a prefix but can never substitute for
// one another.
type Claims struct {
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	TokenType string `json:"token_type"`
	Nonce     string `json:"nonce"`
	Version   uint64 `json:"ver,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the unit of issuance: a short-lived access token and a
// long-lived refresh token minted together.
type TokenPair struct {
	AccessToken          string    `json:"access_token"`
	RefreshToken         string    `json:"refresh_token"`
	AccessTokenExpiresAt time.Time `json:"access_token_expires_at"`
}

// TokenConfig holds signing material and lifetimes. Access and refresh
// tokens use separate secrets so compromising one does not compromise the
// other token type.
type TokenConfig struct {
	Issuer        string
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenAuthority issues, verifies, refreshes, and revokes signed token
// pairs. Tokens are stateless: validity is determined by signature and
// expiry, with revocation delegated to a pluggable Revoker.
type TokenAuthority struct {
	cfg     TokenConfig
	now     func() time.Time
	revoker Revoker
}

// TokenOption configures TokenAuthority behavior.
type TokenOption func(*TokenAuthority) error

// WithTokenClock overrides the time source (useful for tests).
func WithTokenClock(fn func() time.Time) TokenOption {
	return func(a *TokenAuthority) error {
		if fn != nil {
			a.now = fn
		}
		return nil
	}
}

// WithRevoker installs a revocation backend. Call sites are unchanged
// whether the backend is the logging default, the in-memory list, or a
// durable denylist.
func WithRevoker(r Revoker) TokenOption {
	return func(a *TokenAuthority) error {
		if r == nil {
			return errors.New("auth: revoker must not be nil")
		}
		a.revoker = r
		return nil
	}
}

func NewTokenAuthority(cfg TokenConfig, opts ...TokenOption) (*TokenAuthority, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("auth: access and refresh signing secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	a := &TokenAuthority{
		cfg:     cfg,
		now:     time.Now,
		revoker: NopRevoker{},
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// IssuePair mints an access/refresh pair for the principal. Both tokens
// derive their nonces from one fresh session nonce.
func (a *TokenAuthority) IssuePair(principalID string, email string, role Role) (TokenPair, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return TokenPair{}, errors.New("auth: principal id is required")
	}
	if !ValidRole(role) {
		return TokenPair{}, fmt.Errorf("auth: unknown role %q", role)
	}

	now := a.now().UTC()
	session := uuid.NewString()
	var version uint64
	if vs, ok := a.revoker.(VersionSource); ok {
		version = vs.Version(principalID)
	}

	access, err := a.sign(principalID, email, role, TokenTypeAccess, session, version, now, a.cfg.AccessTTL, a.cfg.AccessSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := a.sign(principalID, email, role, TokenTypeRefresh, session, version, now, a.cfg.RefreshTTL, a.cfg.RefreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:          access,
		RefreshToken:         refresh,
		AccessTokenExpiresAt: now.Add(a.cfg.AccessTTL),
	}, nil
}

func (a *TokenAuthority) sign(principalID, email string, role Role, tokenType, session string, version uint64, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := Claims{
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		Nonce:     session + "." + tokenType,
		Version:   version,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.cfg.Issuer,
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// VerifyAccess validates an access token and reconstructs its principal.
// Expired tokens fail with ErrTokenExpired; anything else wrong with the
// token, including presenting a refresh token here, fails with
// ErrInvalidToken.
func (a *TokenAuthority) VerifyAccess(token string) (Principal, error) {
	return a.verify(token, TokenTypeAccess, a.cfg.AccessSecret)
}

// VerifyRefresh validates a refresh token and reconstructs its principal.
func (a *TokenAuthority) VerifyRefresh(token string) (Principal, error) {
	return a.verify(token, TokenTypeRefresh, a.cfg.RefreshSecret)
}

func (a *TokenAuthority) verify(token, wantType string, secret []byte) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, ErrInvalidToken.Wrap(err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}
	if claims.TokenType != wantType || !strings.HasSuffix(claims.Nonce, "."+wantType) {
		return Principal{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || !ValidRole(claims.Role) {
		return Principal{}, ErrInvalidToken
	}
	if vs, ok := a.revoker.(VersionSource); ok && claims.Version < vs.Version(claims.Subject) {
		return Principal{}, ErrInvalidToken
	}
	return Principal{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// Refresh verifies the refresh token and mints a completely new pair from
// its embedded identity claims. The old pair is never mutated; it lapses at
// its natural expiry unless the revoker says otherwise.
func (a *TokenAuthority) Refresh(refreshToken string) (TokenPair, error) {
	principal, err := a.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	return a.IssuePair(principal.ID, principal.Email, principal.Role)
}

// Revoke invalidates the principal's current session through the configured
// revocation backend.
func (a *TokenAuthority) Revoke(principalID string) error {
	return a.revoker.Revoke(principalID)
}

// RevokeAll invalidates every outstanding session for the principal.
func (a *TokenAuthority) RevokeAll(principalID string) error {
	return a.revoker.RevokeAll(principalID)
}

// ExtractBearer parses a "Bearer <token>" header value. Absent or malformed
// input yields ok=false, not an error; whether that is fatal is the caller's
// decision.
func ExtractBearer(header string) (token string, ok bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	const scheme = "bearer "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	token = strings.TrimSpace(header[len(scheme):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// ttlUnits is the closed unit table for ParseTTL.
var ttlUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseTTL parses duration strings like "90s", "15m", "24h", or "7d".
// Malformed values fail here, at configuration load, never at issue time.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	unit, ok := ttlUnits[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("invalid duration %q: unit must be one of s, m, h, d", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(n) * unit, nil
}
