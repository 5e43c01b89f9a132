package redis_test

import (
	"context"
	"testing"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	checkoutredis "github.com/jetemi/ng-pycon/internal/redis"
)

// TestCheckoutLockIntegration exercises the checkout lock against a real
// Redis container.
func TestCheckoutLockIntegration(t *testing.T) {
	// Skip if short test mode
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{
		Addr:     host + ":" + port.Port(),
		Password: "",
		DB:       0,
	})

	locker := checkoutredis.NewLocker(client)
	const year = 2026

	// First checkout takes the lock.
	locked, err := locker.LockCheckout(ctx, "user1", year)
	require.NoError(t, err)
	assert.True(t, locked, "Expected first checkout to take the lock")

	// A second submission from the same user is refused.
	locked, err = locker.LockCheckout(ctx, "user1", year)
	require.NoError(t, err)
	assert.False(t, locked, "Expected concurrent checkout to be refused")

	// The lock is visible without taking it.
	inProgress, err := locker.CheckoutInProgress(ctx, "user1", year)
	require.NoError(t, err)
	assert.True(t, inProgress)

	// A different user is not blocked.
	locked, err = locker.LockCheckout(ctx, "user2", year)
	require.NoError(t, err)
	assert.True(t, locked, "Expected other users to be unaffected")

	// The same user in a different year is not blocked either.
	locked, err = locker.LockCheckout(ctx, "user1", year+1)
	require.NoError(t, err)
	assert.True(t, locked, "Expected the lock to be scoped per conference year")

	// Releasing frees the slot for the next checkout.
	err = locker.UnlockCheckout(ctx, "user1", year)
	require.NoError(t, err)

	inProgress, err = locker.CheckoutInProgress(ctx, "user1", year)
	require.NoError(t, err)
	assert.False(t, inProgress)

	locked, err = locker.LockCheckout(ctx, "user1", year)
	require.NoError(t, err)
	assert.True(t, locked, "Expected checkout to relock after release")

	// Unlocking a never-locked key is a no-op.
	err = locker.UnlockCheckout(ctx, "user-without-lock", year)
	assert.NoError(t, err)
}
