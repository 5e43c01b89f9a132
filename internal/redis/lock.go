package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Locker serializes checkout per buyer. Two concurrent basket submissions
// from the same user would otherwise race the issued-order reuse lookup and
// mint duplicate rows.
type Locker struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{
		Client: client,
		Logger: log.Default(),
	}
}

func checkoutKey(userID string, year int) string {
	return fmt.Sprintf("checkout_lock:%d:%s", year, userID)
}

// getCheckoutLockDuration returns the lock TTL from the environment or the
// default. The normal path releases the lock explicitly; the TTL only ends
// locks whose request died before unlocking.
func (r *Locker) getCheckoutLockDuration() time.Duration {
	defaultDuration := 30 * time.Second

	lockTTLStr := os.Getenv("CHECKOUT_LOCK_TTL_SECONDS")
	if lockTTLStr == "" {
		return defaultDuration
	}

	lockTTLSec, err := strconv.Atoi(lockTTLStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid CHECKOUT_LOCK_TTL_SECONDS value '" + lockTTLStr + "', using default 30 seconds")
		return defaultDuration
	}

	return time.Duration(lockTTLSec) * time.Second
}

// LockCheckout takes the per-user checkout lock. Returns false when another
// checkout for the same user and year is already in flight.
func (r *Locker) LockCheckout(ctx context.Context, userID string, year int) (bool, error) {
	key := checkoutKey(userID, year)
	ok, err := r.Client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), r.getCheckoutLockDuration()).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// UnlockCheckout releases the per-user checkout lock. Safe to call when the
// lock already expired.
func (r *Locker) UnlockCheckout(ctx context.Context, userID string, year int) error {
	key := checkoutKey(userID, year)
	_, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.Client.Del(ctx, key).Result()
	return err
}

// CheckoutInProgress reports whether a checkout lock is currently held for
// the user without taking it.
func (r *Locker) CheckoutInProgress(ctx context.Context, userID string, year int) (bool, error) {
	key := checkoutKey(userID, year)
	_, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
