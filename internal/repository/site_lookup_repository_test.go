package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/rackplan/internal/config"
	"github.com/stwalsh4118/rackplan/internal/database"
	"github.com/stwalsh4118/rackplan/internal/seismic"
)

// The repository is the resolver's persistent store.
var _ seismic.Store = (SiteLookupRepository)(nil)

// getTestConfig returns database configuration for integration tests.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Enabled:  true,
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "rackplan"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  1,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestRepository connects to Postgres or skips.
func setupTestRepository(t *testing.T) (*siteLookupRepository, *database.Database) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	t.Cleanup(db.Close)

	return NewSiteLookupRepository(db).(*siteLookupRepository), db
}

func testKey() string {
	return "test:" + uuid.NewString()
}

func TestGet_Missing(t *testing.T) {
	repo, _ := setupTestRepository(t)

	payload, err := repo.Get(context.Background(), testKey())

	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestPutGet_RoundTrip(t *testing.T) {
	repo, _ := setupTestRepository(t)
	ctx := context.Background()
	key := testKey()

	require.NoError(t, repo.Put(ctx, key, []byte(`{"latitude":36.7378,"longitude":-119.7871}`), time.Now().Add(time.Hour)))

	payload, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"latitude":36.7378,"longitude":-119.7871}`, string(payload))
}

func TestPut_FirstWriterWins(t *testing.T) {
	repo, _ := setupTestRepository(t)
	ctx := context.Background()
	key := testKey()

	require.NoError(t, repo.Put(ctx, key, []byte(`{"v":1}`), time.Now().Add(time.Hour)))
	require.NoError(t, repo.Put(ctx, key, []byte(`{"v":2}`), time.Now().Add(time.Hour)))

	payload, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(payload))
}

func TestExpiry(t *testing.T) {
	repo, _ := setupTestRepository(t)
	ctx := context.Background()
	key := testKey()

	require.NoError(t, repo.Put(ctx, key, []byte(`{"v":1}`), time.Now().Add(-time.Minute)))

	payload, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, payload, "expired entries are not returned")

	// An expired row is replaced by the next writer.
	require.NoError(t, repo.Put(ctx, key, []byte(`{"v":2}`), time.Now().Add(time.Hour)))
	payload, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(payload))

	other := testKey()
	require.NoError(t, repo.Put(ctx, other, []byte(`{}`), time.Now().Add(-time.Minute)))
	n, err := repo.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestGet_ContextCancellation(t *testing.T) {
	repo, _ := setupTestRepository(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Get(ctx, testKey())
	assert.Error(t, err)
}
