package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

const verificationKeyPrefix = "afterschool:verification:"

func verificationKey(email string) string {
	return verificationKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// VerificationRepository keeps signup codes in Redis so every instance sees
// the same code and expiry is enforced by the server.
type VerificationRepository struct {
	client *redis.Client
}

// NewVerificationRepository constructs the Redis-backed store.
func NewVerificationRepository(client *redis.Client) *VerificationRepository {
	return &VerificationRepository{client: client}
}

// Save stores code for email, replacing any earlier code. A zero ttl keeps
// the code until it is overwritten or deleted.
func (r *VerificationRepository) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, verificationKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("save verification code: %w", err)
	}
	return nil
}

// Get returns the current code or appErrors.ErrCacheMiss.
func (r *VerificationRepository) Get(ctx context.Context, email string) (string, error) {
	code, err := r.client.Get(ctx, verificationKey(email)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", appErrors.ErrCacheMiss
		}
		return "", fmt.Errorf("get verification code: %w", err)
	}
	return code, nil
}

// Delete removes the code for email.
func (r *VerificationRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, verificationKey(email)).Err(); err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryVerificationStore is a process-local store for single-instance and
// test deployments.
type MemoryVerificationStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryVerificationStore constructs an empty store.
func NewMemoryVerificationStore() *MemoryVerificationStore {
	return &MemoryVerificationStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Save implements the verification store.
func (s *MemoryVerificationStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	entry := memoryEntry{code: code}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[verificationKey(email)] = entry
	s.mu.Unlock()
	return nil
}

// Get implements the verification store. Expired entries are evicted lazily.
func (s *MemoryVerificationStore) Get(ctx context.Context, email string) (string, error) {
	key := verificationKey(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return "", appErrors.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return "", appErrors.ErrCacheMiss
	}
	return entry.code, nil
}

// Delete implements the verification store.
func (s *MemoryVerificationStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	delete(s.entries, verificationKey(email))
	s.mu.Unlock()
	return nil
}
