package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "herms:session:"

// RedisStore keeps sessions as plain keys holding the user id; Redis expiry
// enforces the TTL.
type RedisStore struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func redisKey(id uuid.UUID) string {
	return redisKeyPrefix + id.String()
}

func (s *RedisStore) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (Session, error) {
	sess := Session{ID: uuid.New(), UserID: userID, ExpiresAt: s.now().Add(ttl)}
	if err := s.client.Set(ctx, redisKey(sess.ID), userID.String(), ttl).Err(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (Session, error) {
	key := redisKey(id)
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		return Session{}, ErrSessionNotFound
	}

	sess := Session{ID: id, UserID: userID}
	ttl, err := s.client.PTTL(ctx, key).Result()
	if err == nil && ttl > 0 {
		sess.ExpiresAt = s.now().Add(ttl)
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.Del(ctx, redisKey(id)).Err()
}
