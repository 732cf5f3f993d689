package auth

import (
	"context"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

// DefaultAPIKeyHeader carries the API key.
const DefaultAPIKeyHeader = "X-API-Key"

// HashAPIKey returns the hex BLAKE3 digest stored in place of a key.
func HashAPIKey(key string) string {
	sum := blake3.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

// APIKey is a registered key, stored by hash.
type APIKey struct {
	ID        string
	Hash      string
	Principal string
	Roles     []string
	ExpiresAt time.Time
}

// KeyStore is an in-memory set of API keys indexed by hash.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]APIKey
}

// NewKeyStore creates a store holding keys.
func NewKeyStore(keys ...APIKey) *KeyStore {
	s := &KeyStore{keys: make(map[string]APIKey, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add registers k, replacing any key with the same hash.
func (s *KeyStore) Add(k APIKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[k.Hash] = k
}

// Remove deletes the key with hash.
func (s *KeyStore) Remove(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, hash)
}

// Lookup returns the key with hash.
func (s *KeyStore) Lookup(hash string) (APIKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[hash]
	return k, ok
}

// Len returns the number of registered keys.
func (s *KeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// APIKeyAuthenticator accepts keys registered in a KeyStore.
type APIKeyAuthenticator struct {
	header string
	store  *KeyStore
	now    func() time.Time
}

// NewAPIKeyAuthenticator reads keys from header, or DefaultAPIKeyHeader
// when header is empty.
func NewAPIKeyAuthenticator(header string, store *KeyStore) *APIKeyAuthenticator {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	return &APIKeyAuthenticator{header: header, store: store, now: time.Now}
}

func (a *APIKeyAuthenticator) Name() string { return "api_key" }

func (a *APIKeyAuthenticator) Supports(h http.Header) bool {
	return strings.TrimSpace(h.Get(a.header)) != ""
}

func (a *APIKeyAuthenticator) Authenticate(_ context.Context, h http.Header) (*Identity, error) {
	raw := strings.TrimSpace(h.Get(a.header))
	if raw == "" {
		return nil, ErrMissingCredentials
	}
	key, ok := a.store.Lookup(HashAPIKey(raw))
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !key.ExpiresAt.IsZero() && !a.now().Before(key.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return &Identity{
		Principal: key.Principal,
		Roles:     key.Roles,
		Method:    MethodAPIKey,
		Claims:    map[string]any{"key_id": key.ID},
		ExpiresAt: key.ExpiresAt,
	}, nil
}

var _ Authenticator = (*APIKeyAuthenticator)(nil)
