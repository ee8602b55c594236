package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/localnerve/pagesdb/internal/database"
	"github.com/localnerve/pagesdb/internal/services"
	"github.com/localnerve/pagesdb/internal/testutil"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWithPostgres runs the save state machine and the slug rules against a real Postgres container
func TestWithPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tc, err := testutil.StartContainers(ctx, t, true)
	if err != nil {
		t.Skipf("Containers unavailable: %v", err)
	}
	defer tc.Terminate(t)

	cfg := tc.Config()
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	defer database.Close(db)
	require.NoError(t, database.AutoMigrate(db))

	t.Run("save lifecycle", func(t *testing.T) {
		project, home, err := services.CreateProject(ctx, db, "owner", services.ProjectInput{Name: "Demo", Slug: "demo"})
		require.NoError(t, err)
		assert.Equal(t, home.ID, project.HomePage)

		result, err := services.SaveContent(ctx, db, services.PageKind, services.SaveInput{ID: home.ID, Code: "C2"}, "owner")
		require.NoError(t, err)
		assert.Equal(t, services.SaveVersioned, result.Outcome)

		result, err = services.SaveContent(ctx, db, services.PageKind, services.SaveInput{ID: home.ID, Code: "C4"}, "u2")
		require.NoError(t, err)
		assert.Equal(t, services.SaveForked, result.Outcome)

		versions, err := services.ListVersions(ctx, db, services.PageKind, home.ID)
		require.NoError(t, err)
		assert.Len(t, versions, 1)
	})

	t.Run("slug conflict", func(t *testing.T) {
		_, _, err := services.CreateProject(ctx, db, "owner", services.ProjectInput{Name: "Unique", Slug: "unique"})
		require.NoError(t, err)
		_, _, err = services.CreateProject(ctx, db, "u2", services.ProjectInput{Name: "Again", Slug: "unique"})
		assert.True(t, errors.Is(err, types.ErrConflict))
	})

	t.Run("session cache", func(t *testing.T) {
		cache, err := services.NewRedisSessionCache(cfg.RedisURL, cfg.SessionCacheTTL)
		require.NoError(t, err)
		defer cache.Close()

		require.NoError(t, cache.Set(ctx, "key", &services.SessionUser{ID: "owner"}))
		user, err := cache.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, "owner", user.ID)
	})

	t.Run("health", func(t *testing.T) {
		result := services.HealthCheck(ctx, cfg, db, nil)
		assert.Equal(t, "ok", result.Database)
	})
}
