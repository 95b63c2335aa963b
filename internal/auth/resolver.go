package auth

import (
	"context"
	"sync"
	"time"

	"github.com/gitgaze/gitgaze/internal/session"
)

const (
	// DefaultCacheTTL bounds how long a resolved credential is reused before
	// the provider chain is consulted again.
	DefaultCacheTTL = 5 * time.Minute

	anonymousScope = "anonymous"
)

type cachedCredential struct {
	credential Credential
	resolvedAt time.Time
}

// Resolver walks an ordered provider chain and caches the outcome per scope.
// A scope is one authenticated session, or the shared anonymous scope when no
// session is present. Cache overwrites race benignly; the provider lookups
// are idempotent.
type Resolver struct {
	providers []Provider
	ttl       time.Duration
	now       func() time.Time

	mu    sync.Mutex
	cache map[string]cachedCredential
}

// NewResolver creates a credential resolver over providers, consulted in
// order. ttl <= 0 uses DefaultCacheTTL; now may be nil.
func NewResolver(providers []Provider, ttl time.Duration, now func() time.Time) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		providers: providers,
		ttl:       ttl,
		now:       now,
		cache:     make(map[string]cachedCredential),
	}
}

// Resolve returns the credential for the current request scope: a fresh
// cached value if younger than the TTL, otherwise the first provider that
// yields one, otherwise anonymous. Every resolution refreshes the cache.
func (r *Resolver) Resolve(ctx context.Context) Credential {
	scope := scopeKey(ctx)
	now := r.now()

	r.mu.Lock()
	if entry, ok := r.cache[scope]; ok && now.Sub(entry.resolvedAt) < r.ttl {
		r.mu.Unlock()
		return entry.credential
	}
	r.mu.Unlock()

	credential := Anonymous()
	for _, provider := range r.providers {
		if resolved, ok := provider.TryResolve(ctx); ok {
			credential = resolved
			break
		}
	}

	r.mu.Lock()
	r.cache[scope] = cachedCredential{credential: credential, resolvedAt: now}
	r.mu.Unlock()
	return credential
}

// Token implements the fetch client's token source.
func (r *Resolver) Token(ctx context.Context) string {
	return r.Resolve(ctx).Token
}

// Invalidate drops the cached credential for one session scope.
func (r *Resolver) Invalidate(sessionID string) {
	scope := anonymousScope
	if sessionID != "" {
		scope = "session:" + sessionID
	}
	r.mu.Lock()
	delete(r.cache, scope)
	r.mu.Unlock()
}

// InvalidateAll clears the cache unconditionally. Called after login and
// logout transitions.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[string]cachedCredential)
	r.mu.Unlock()
}

func scopeKey(ctx context.Context) string {
	if sess, ok := session.FromContext(ctx); ok {
		return "session:" + sess.ID
	}
	return anonymousScope
}
