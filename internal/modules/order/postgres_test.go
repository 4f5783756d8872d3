package order

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/georgemunganga/schoolpack-backend/internal/config"
	"github.com/georgemunganga/schoolpack-backend/internal/database"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postgresRepoForTest connects to SCHOOLPACK_TEST_DB_DSN and skips when it is unset.
func postgresRepoForTest(t *testing.T) Repository {
	t.Helper()
	dsn := os.Getenv("SCHOOLPACK_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("SCHOOLPACK_TEST_DB_DSN not set, skipping postgres repository test")
	}
	ctx := context.Background()
	db, err := database.NewConnection(ctx, &config.DBConfig{DSN: dsn, MaxOpenConns: 10})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return NewPostgresRepository(db.DB)
}

func guestOrder(sessionID, total string) *Order {
	return &Order{
		ID:              uuid.New(),
		Items:           []cart.LineItem{{ID: "pack-1", Kind: cart.KindPack, Name: "Pack - 3rd - Lincoln", UnitPrice: decimal.RequireFromString(total), Quantity: 1}},
		Total:           decimal.RequireFromString(total),
		Status:          StatusPending,
		SchoolName:      "Lincoln",
		Grade:           "3rd",
		StripeSessionID: sessionID,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestPostgresCreateIfAbsentReturnsExisting(t *testing.T) {
	repo := postgresRepoForTest(t)
	ctx := context.Background()
	session := "cs_test_" + uuid.NewString()

	first, created, err := repo.CreateIfAbsent(ctx, guestOrder(session, "49.92"))
	require.NoError(t, err)
	require.True(t, created)
	t.Cleanup(func() { repo.Delete(context.Background(), first.ID) })
	assert.Nil(t, first.UserID)
	assert.Equal(t, 1, first.Version)

	second, created, err := repo.CreateIfAbsent(ctx, guestOrder(session, "1.00"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, decimal.RequireFromString("49.92").Equal(second.Total))
	require.Len(t, second.Items, 1)
	assert.Equal(t, "pack-1", second.Items[0].ID)
}

func TestPostgresCreateIfAbsentConcurrent(t *testing.T) {
	repo := postgresRepoForTest(t)
	ctx := context.Background()
	session := "cs_test_" + uuid.NewString()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[uuid.UUID]bool{}
		creates int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, created, err := repo.CreateIfAbsent(ctx, guestOrder(session, "10.00"))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[o.ID] = true
			if created {
				creates++
			}
		}()
	}
	wg.Wait()

	require.Len(t, ids, 1)
	assert.Equal(t, 1, creates)
	for id := range ids {
		t.Cleanup(func() { repo.Delete(context.Background(), id) })
	}
}

func TestPostgresUpdateStatusVersioning(t *testing.T) {
	repo := postgresRepoForTest(t)
	ctx := context.Background()

	o, _, err := repo.CreateIfAbsent(ctx, guestOrder("cs_test_"+uuid.NewString(), "20.00"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Delete(context.Background(), o.ID) })

	v := o.Version
	updated, err := repo.UpdateStatus(ctx, o.ID, StatusProcessing, &v)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)
	assert.Equal(t, v+1, updated.Version)
	assert.True(t, updated.UpdatedAt.After(o.UpdatedAt))

	_, err = repo.UpdateStatus(ctx, o.ID, StatusCompleted, &v)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// Without an expected version the write always lands.
	updated, err = repo.UpdateStatus(ctx, o.ID, StatusPending, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, updated.Status)
	assert.Equal(t, v+2, updated.Version)

	_, err = repo.UpdateStatus(ctx, uuid.New(), StatusCompleted, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
