package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/campuspark/parking-reservation/internal/user"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// Session is the identity attached to a request after the opaque token
// has been resolved.
type Session struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Role     user.Role `json:"role"`
}

// Store keeps sessions in Redis under session:<token> with a TTL.
type Store struct {
	client      *redis.Client
	ttl         time.Duration
	rememberTTL time.Duration

	newToken func() string
}

func NewStore(client *redis.Client, ttl, rememberTTL time.Duration) *Store {
	return &Store{
		client:      client,
		ttl:         ttl,
		rememberTTL: rememberTTL,
		newToken:    uuid.NewString,
	}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create stores the session and returns its opaque token.
func (s *Store) Create(ctx context.Context, sess Session, remember bool) (string, error) {
	token := s.newToken()

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	ttl := s.ttl
	if remember {
		ttl = s.rememberTTL
	}

	if err := s.client.Set(ctx, sessionKey(token), data, ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &sess, nil
}

func (s *Store) Destroy(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
