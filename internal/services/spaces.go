package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"github.com/localnerve/pagesdb/internal/database"
	"github.com/localnerve/pagesdb/internal/models"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/localnerve/pagesdb/internal/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Membership roles
const (
	SpaceRoleOwner  = "owner"
	SpaceRoleMember = "member"
)

const spaceIDLength = 24

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]`)

// PersonalSpaceName is "<name>'s Workspace", with "Personal" for users without a name
func PersonalSpaceName(userName string) string {
	if userName == "" {
		userName = "Personal"
	}
	return userName + "'s Workspace"
}

// PersonalSpaceSlug lowercases the name, replaces every non alphanumeric with
// "-" and appends a 5 character random suffix.
func PersonalSpaceSlug(userName string) string {
	if userName == "" {
		userName = "personal"
	}
	base := nonSlugChars.ReplaceAllString(strings.ToLower(userName), "-")
	return base + "-" + strings.ToLower(utils.GenerateID(5))
}

// personalSpaceID is the fixed id of a user's personal space. A second
// concurrent insert for the same user fails on the primary key.
func personalSpaceID(userID string) string {
	sum := sha256.Sum256([]byte("personal:" + userID))
	return hex.EncodeToString(sum[:])[:spaceIDLength]
}

// EnsurePersonalSpace gives a user without any membership a personal space
// they own, and returns the active space id (the first membership).
// Concurrent first requests for one user share a single personal space.
func EnsurePersonalSpace(ctx context.Context, db *gorm.DB, user SessionUser) (string, error) {
	if user.ID == "" {
		return "", nil
	}
	db = db.WithContext(ctx)

	active, err := ActiveSpaceID(ctx, db, user.ID)
	if err != nil || active != "" {
		return active, err
	}

	ts := now()
	metadata, err := models.NewJSON(map[string]any{"personal": true})
	if err != nil {
		return "", err
	}
	space := models.Space{
		ID:        personalSpaceID(user.ID),
		Name:      PersonalSpaceName(displayName(user)),
		Slug:      PersonalSpaceSlug(displayName(user)),
		Metadata:  metadata,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	member := models.SpaceUser{
		ID:             utils.GenerateID(spaceIDLength),
		OrganizationID: space.ID,
		UserID:         user.ID,
		Role:           SpaceRoleOwner,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&space).Error; err != nil {
			return err
		}
		return tx.Create(&member).Error
	})
	if database.IsDuplicateKey(err) {
		// Lost the race to another request for the same user
		active, findErr := ActiveSpaceID(ctx, db, user.ID)
		if findErr != nil || active != "" {
			return active, findErr
		}
		var count int64
		if findErr := db.Model(&models.Space{}).Where("id = ?", space.ID).Count(&count).Error; findErr != nil {
			return "", findErr
		}
		if count > 0 {
			return space.ID, nil
		}
	}
	if err != nil {
		return "", err
	}

	log.Info().Str("user", user.ID).Str("space", space.Slug).Msg("Created personal space")
	return space.ID, nil
}

func displayName(user SessionUser) string {
	if user.Name != "" {
		return user.Name
	}
	if at := strings.IndexByte(user.Email, '@'); at > 0 {
		return user.Email[:at]
	}
	return ""
}

// ActiveSpaceID returns the user's first membership, or "" when there is none
func ActiveSpaceID(ctx context.Context, db *gorm.DB, userID string) (string, error) {
	var member models.SpaceUser
	err := quiet(db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.OrganizationID, nil
}

// ListSpaces returns the spaces the user is a member of
func ListSpaces(ctx context.Context, db *gorm.DB, userID string) ([]models.Space, error) {
	spaces := []models.Space{}
	err := db.WithContext(ctx).
		Joins("JOIN space_users ON space_users.organization_id = spaces.id").
		Where("space_users.user_id = ?", userID).
		Order("spaces.created_at ASC").
		Find(&spaces).Error
	if err != nil {
		return nil, err
	}
	return spaces, nil
}

// ListMembers returns a space and its members. Spaces the user does not belong to are ErrNotFound.
func ListMembers(ctx context.Context, db *gorm.DB, slug, userID string) (*models.Space, []models.SpaceUser, error) {
	db = db.WithContext(ctx)

	var space models.Space
	err := quiet(db).Where("slug = ?", slug).First(&space).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, types.NotFoundf("Space %q not found", slug)
	}
	if err != nil {
		return nil, nil, err
	}

	var count int64
	if err := db.Model(&models.SpaceUser{}).
		Where("organization_id = ? AND user_id = ?", space.ID, userID).
		Count(&count).Error; err != nil {
		return nil, nil, err
	}
	if count == 0 {
		return nil, nil, types.NotFoundf("Space %q not found", slug)
	}

	members := []models.SpaceUser{}
	if err := db.Where("organization_id = ?", space.ID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, nil, err
	}
	return &space, members, nil
}
