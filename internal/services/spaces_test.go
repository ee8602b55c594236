package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/localnerve/pagesdb/internal/models"
	"github.com/localnerve/pagesdb/internal/testutil"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalSpaceName(t *testing.T) {
	assert.Equal(t, "Ada's Workspace", PersonalSpaceName("Ada"))
	assert.Equal(t, "Personal's Workspace", PersonalSpaceName(""))
}

func TestPersonalSpaceSlug(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^ada-lovelace-[a-z0-9]{5}$`), PersonalSpaceSlug("Ada Lovelace"))
	assert.Regexp(t, regexp.MustCompile(`^personal-[a-z0-9]{5}$`), PersonalSpaceSlug(""))
}

func TestEnsurePersonalSpace(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := SessionUser{ID: "user-1", Email: "ada@example.com"}

	spaceID, err := EnsurePersonalSpace(ctx, db, user)
	require.NoError(t, err)
	require.NotEmpty(t, spaceID)

	spaces, err := ListSpaces(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, spaceID, spaces[0].ID)
	assert.Equal(t, "ada's Workspace", spaces[0].Name)
	assert.JSONEq(t, `{"personal":true}`, string(spaces[0].Metadata.JSON))

	// A second call reuses the membership
	again, err := EnsurePersonalSpace(ctx, db, user)
	require.NoError(t, err)
	assert.Equal(t, spaceID, again)

	spaces, err = ListSpaces(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Len(t, spaces, 1)
}

func TestEnsurePersonalSpaceAnonymous(t *testing.T) {
	db := testutil.NewTestDB(t)

	spaceID, err := EnsurePersonalSpace(context.Background(), db, SessionUser{})
	require.NoError(t, err)
	assert.Empty(t, spaceID)
}

func TestEnsurePersonalSpaceConcurrent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := SessionUser{ID: "user-1", Name: "Ada"}

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = EnsurePersonalSpace(ctx, db, user)
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, personalSpaceID(user.ID), ids[i])
	}
	var count int64
	require.NoError(t, db.Model(&models.Space{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnsurePersonalSpaceAlreadyCreated(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := SessionUser{ID: "user-1", Name: "Ada"}

	// Another request inserted the space first
	existing := models.Space{ID: personalSpaceID(user.ID), Name: "Ada's Workspace", Slug: "ada-first"}
	require.NoError(t, db.Create(&existing).Error)

	spaceID, err := EnsurePersonalSpace(ctx, db, user)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, spaceID)

	var count int64
	require.NoError(t, db.Model(&models.Space{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestListMembers(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := EnsurePersonalSpace(ctx, db, SessionUser{ID: "user-1", Name: "Ada"})
	require.NoError(t, err)
	spaces, err := ListSpaces(ctx, db, "user-1")
	require.NoError(t, err)
	require.Len(t, spaces, 1)

	space, members, err := ListMembers(ctx, db, spaces[0].Slug, "user-1")
	require.NoError(t, err)
	assert.Equal(t, spaces[0].ID, space.ID)
	require.Len(t, members, 1)
	assert.Equal(t, "user-1", members[0].UserID)
	assert.Equal(t, SpaceRoleOwner, members[0].Role)

	_, _, err = ListMembers(ctx, db, spaces[0].Slug, "user-2")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, _, err = ListMembers(ctx, db, "missing", "user-1")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}
