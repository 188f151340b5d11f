package token

import (
	"sync"
	"time"
)

// RevocationList remembers the IDs of tokens the backend has replaced or
// withdrawn. An entry only matters while its token could still pass
// verification, so it is kept until the token's expiry plus the grace the
// verifier allows, and pruned lazily after that.
type RevocationList struct {
	mu    sync.Mutex
	until map[string]time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{until: make(map[string]time.Time)}
}

// Revoke withdraws the token described by claims. Tokens without an ID
// cannot be told apart and are ignored.
func (l *RevocationList) Revoke(claims *Claims, grace time.Duration) bool {
	if claims == nil || claims.ID == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune()
	l.until[claims.ID] = claims.Expiry().Add(grace)
	return true
}

func (l *RevocationList) IsRevoked(claims *Claims) bool {
	if claims == nil || claims.ID == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.until[claims.ID]
	return ok && !NowTimeFunc().After(until)
}

// Len is the number of entries still held.
func (l *RevocationList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune()
	return len(l.until)
}

func (l *RevocationList) prune() {
	now := NowTimeFunc()
	for id, until := range l.until {
		if now.After(until) {
			delete(l.until, id)
		}
	}
}
