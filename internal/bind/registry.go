package bind

import (
	"strings"
	"sync"
	"time"
)

// Registry holds pending link codes in memory. Expired codes are never swept;
// they stay until a link attempt finds and discards them.
type Registry struct {
	mu    sync.Mutex
	codes map[string]Code
	ttl   time.Duration
	now   func() time.Time
}

// NewRegistry creates an empty registry. A non-positive ttl means DefaultTTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		codes: map[string]Code{},
		ttl:   ttl,
		now:   time.Now,
	}
}

// Register stores a code for uuid, replacing any entry already under the same code.
func (r *Registry) Register(token, uuid, name string) (Code, error) {
	token = strings.TrimSpace(token)
	uuid = strings.TrimSpace(uuid)
	if token == "" || uuid == "" {
		return Code{}, ErrMissingFields
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	code := Code{
		Token:     token,
		UUID:      uuid,
		Name:      name,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	r.codes[token] = code
	return code, nil
}

// Resolve looks up a code without changing it.
func (r *Registry) Resolve(token string) (Code, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.codes[token]
	return code, ok
}

// Consume removes a code.
func (r *Registry) Consume(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, token)
}

// Len reports how many codes are pending, expired ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

// Now is the registry clock.
func (r *Registry) Now() time.Time {
	return r.now()
}
