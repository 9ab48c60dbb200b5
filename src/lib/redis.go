package lib

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

const claimLockPrefix = "claim-lock:"

// ClaimLock keeps two instances from reconciling the same claim key at once.
// The database unique index remains the final arbiter.
type ClaimLock struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewClaimLock(rdb *redis.Client, ttl time.Duration) *ClaimLock {
	return &ClaimLock{rdb: rdb, ttl: ttl}
}

// Acquire returns false when another caller holds the key.
func (l *ClaimLock) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, claimLockPrefix+key, 1, l.ttl).Result()
	if err != nil {
		log.Printf("[redis] Error acquiring claim lock %s: %s\n", key, err.Error())
		return false, err
	}
	return ok, nil
}

func (l *ClaimLock) Release(ctx context.Context, key string) {
	if err := l.rdb.Del(ctx, claimLockPrefix+key).Err(); err != nil {
		log.Printf("[redis] Error releasing claim lock %s: %s\n", key, err.Error())
	}
}
