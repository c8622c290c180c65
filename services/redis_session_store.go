package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nup_registration/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const lockTTL = 2 * time.Minute

// unlockScript deletes the lock only while it still carries the caller's
// token, so an expired lock taken over by another request stays in place.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSessionStore shares sessions between several service instances.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(ctx context.Context, url string, ttl time.Duration) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "invalid REDIS_URL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}
	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

func sessionKey(id string) string { return "nup:session:" + id }
func lockKey(id string) string    { return "nup:lock:" + id }

func (r *RedisSessionStore) Save(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}
	return r.client.Set(ctx, sessionKey(session.ID), data, r.ttl).Err()
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}
	return &session, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id), lockKey(id)).Err()
}

func (r *RedisSessionStore) Lock(ctx context.Context, id string) (func(), error) {
	token := uuid.New().String()
	ok, err := r.client.SetNX(ctx, lockKey(id), token, lockTTL).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock session")
	}
	if !ok {
		return nil, ErrSessionBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := unlockScript.Run(context.Background(), r.client, []string{lockKey(id)}, token).Err(); err != nil {
				log.WithError(err).WithField("session", id).Warn("Failed to release session lock")
			}
		})
	}, nil
}

func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}
