package auth

import (
	"log"
	"sync"
)

// Revoker invalidates previously issued token pairs for a principal. The
// core does not mandate a durable revocation store; implementations range
// from the logging no-op below to a blacklist-backed service, all behind the
// same call sites.
type Revoker interface {
	Revoke(principalID string) error
	RevokeAll(principalID string) error
}

// VersionSource is consulted by the token authority when the configured
// Revoker also tracks state. Tokens embed the principal's version at issue
// time; verification rejects tokens carrying an older version, so revocation
// takes effect immediately without a denylist of individual tokens. Claim
// timestamps only carry second precision, which is why the mechanism is a
// counter rather than a cutoff instant.
type VersionSource interface {
	Version(principalID string) uint64
}

// NopRevoker records nothing. Revocation becomes advisory: tokens lapse at
// their natural expiry.
type NopRevoker struct{}

func (NopRevoker) Revoke(principalID string) error {
	log.Printf("auth: revoke requested for %s (no revocation backend configured)", principalID)
	return nil
}

func (NopRevoker) RevokeAll(principalID string) error {
	log.Printf("auth: revoke-all requested for %s (no revocation backend configured)", principalID)
	return nil
}

// MemoryRevocationList keeps a per-principal version counter in process
// memory. It is the reference Revoker for single-instance deployments and
// tests; a durable or shared backend implements the same two interfaces.
type MemoryRevocationList struct {
	mu       sync.RWMutex
	versions map[string]uint64
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{versions: make(map[string]uint64)}
}

// Revoke bumps the principal's version. Tokens are session-scoped only
// through their shared nonce; without per-session bookkeeping a
// single-session revoke degrades to revoking all, which errs on the safe
// side.
func (l *MemoryRevocationList) Revoke(principalID string) error {
	return l.RevokeAll(principalID)
}

func (l *MemoryRevocationList) RevokeAll(principalID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.versions[principalID]++
	return nil
}

func (l *MemoryRevocationList) Version(principalID string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.versions[principalID]
}
