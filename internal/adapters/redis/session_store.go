// Package redis provides the Redis-backed session store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// ErrNotFound is returned when a session is absent or expired.
var ErrNotFound = apperrors.NotFound("session not found")

const defaultPrefix = "narrai:session:"

// SessionStore keeps sessions as JSON with a TTL matching ExpiresAt.
// Transport failures surface as Unavailable so callers can tell "no session" from "cannot tell yet".
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, defaultPrefix)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domainauth.Session{}, ErrNotFound
	}
	if err != nil {
		return domainauth.Session{}, unavailable(err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// a corrupt record is treated as absent
		_ = s.Delete(ctx, id)
		return domainauth.Session{}, ErrNotFound
	}
	if !s.now().Before(sess.ExpiresAt) {
		if delErr := s.Delete(ctx, id); delErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", delErr)
		}
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	return apperrors.Unavailable(err, "session store unavailable")
}
