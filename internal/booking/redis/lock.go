package redis

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds the per-event capacity lock. Booking creation for an event
// must run capacity-check + insert under this lock so two concurrent
// requests cannot both see free capacity and jointly oversell.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getEventLockTTL returns the lock TTL from the environment or the default.
// The TTL is a crash backstop only; the owner releases the lock explicitly.
func (r *Redis) getEventLockTTL() time.Duration {
	defaultTTL := 10 * time.Second

	ttlStr := os.Getenv("EVENT_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultTTL
	}

	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		r.Logger.Println("REDIS: invalid EVENT_LOCK_TTL_SECONDS value '" + ttlStr + "', using default 10s")
		return defaultTTL
	}
	return time.Duration(ttlSec) * time.Second
}

// LockEvent tries to take the capacity lock for an event. Returns false
// when another booking request holds it.
func (r *Redis) LockEvent(eventID, ownerID string) (bool, error) {
	key := "event_capacity_lock:" + eventID
	return r.Client.SetNX(context.Background(), key, ownerID, r.getEventLockTTL()).Result()
}

// UnlockEvent releases the capacity lock, but only for the owner that took
// it. A lock that expired and was re-taken by another request stays put.
func (r *Redis) UnlockEvent(eventID, ownerID string) error {
	ctx := context.Background()
	key := "event_capacity_lock:" + eventID

	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == ownerID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
