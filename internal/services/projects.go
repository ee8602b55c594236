// projects.go
//
// A page and snippet builder service with versioned content and multi-database support
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of pagesdb.
// pagesdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// pagesdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with pagesdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"

	"github.com/localnerve/pagesdb/data"
	"github.com/localnerve/pagesdb/internal/database"
	"github.com/localnerve/pagesdb/internal/models"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/localnerve/pagesdb/internal/utils"
	"gorm.io/gorm"
)

// Home page defaults for new projects
const (
	HomePageName = "Home"
	HomePageSlug = "home"
)

// ProjectInput is a project creation request
type ProjectInput struct {
	Name        string
	Description string
	Slug        string
	SpaceID     string
}

// ProjectUpdate is a partial project update. Nil fields are left untouched.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Slug        *string
	HomePage    *string
}

var errSlugTaken = types.Conflictf("Project with this slug already exists.")

// CreateProject creates a project with its Home page bound as homePage, in one transaction.
// The slug defaults to the generated id.
func CreateProject(ctx context.Context, db *gorm.DB, owner string, in ProjectInput) (*models.Project, *models.Content, error) {
	ts := now()
	id := utils.NewID()
	project := &models.Project{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Slug:        in.Slug,
		SpaceID:     in.SpaceID,
		Owner:       owner,
		Created:     ts,
		CreatedBy:   owner,
		Modified:    ts,
		ModifiedBy:  owner,
	}
	if project.Slug == "" {
		project.Slug = id
	}

	var home *models.Content
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := slugHolder(tx, project.Slug)
		if err != nil {
			return err
		}
		if taken != "" {
			return errSlugTaken
		}

		if err := tx.Create(project).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return errSlugTaken
			}
			return err
		}

		slug, path, nav := HomePageSlug, HomePageSlug, true
		home, err = createContent(tx, PageKind, SaveInput{
			ProjectID:       project.ID,
			Name:            HomePageName,
			Code:            data.HomePageMarkup,
			Slug:            &slug,
			Path:            &path,
			AddToNavigation: &nav,
		}, owner)
		if err != nil {
			return err
		}

		project.HomePage = home.ID
		return tx.Model(project).Update("home_page", home.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}

	recordSave(PageKind, SaveCreated)
	return project, home, nil
}

// slugHolder returns the id of the project holding slug, or ""
func slugHolder(db *gorm.DB, slug string) (string, error) {
	var project models.Project
	err := quiet(db).Select("id").Where("slug = ?", slug).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return project.ID, nil
}

// FindProject returns a project by id or ErrNotFound
func FindProject(ctx context.Context, db *gorm.DB, id string) (*models.Project, error) {
	var project models.Project
	err := quiet(db.WithContext(ctx)).Where("id = ?", id).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFoundf("Project #%s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// FindProjectBySlug returns a project by slug or ErrNotFound
func FindProjectBySlug(ctx context.Context, db *gorm.DB, slug string) (*models.Project, error) {
	var project models.Project
	err := quiet(db.WithContext(ctx)).Where("slug = ?", slug).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFoundf("Project %q not found", slug)
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ResolveProject looks a token up as a slug first, then as an id
func ResolveProject(ctx context.Context, db *gorm.DB, slugOrID string) (*models.Project, error) {
	project, err := FindProjectBySlug(ctx, db, slugOrID)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	project, err = FindProject(ctx, db, slugOrID)
	if errors.Is(err, types.ErrNotFound) {
		return nil, types.NotFoundf("Project not found")
	}
	return project, err
}

// ResolveOwnedProject resolves a project and hides it from anyone but its owner
func ResolveOwnedProject(ctx context.Context, db *gorm.DB, slugOrID, caller string) (*models.Project, error) {
	project, err := ResolveProject(ctx, db, slugOrID)
	if err != nil {
		return nil, err
	}
	if !Owns(project.Owner, caller) {
		return nil, types.NotFoundf("Project not found")
	}
	return project, nil
}

// ListProjects returns the owner's projects, newest modification first
func ListProjects(ctx context.Context, db *gorm.DB, owner string) ([]models.Project, error) {
	projects := []models.Project{}
	err := db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("modified DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProject applies a partial update filtered by owner, so a non-owner
// update changes nothing. A slug held by another project is ErrConflict.
// The project is returned as stored after the update.
func UpdateProject(ctx context.Context, db *gorm.DB, id, caller string, upd ProjectUpdate) (*models.Project, error) {
	db = db.WithContext(ctx)

	if upd.Slug != nil && *upd.Slug != "" {
		holder, err := slugHolder(db, *upd.Slug)
		if err != nil {
			return nil, err
		}
		if holder != "" && holder != id {
			return nil, errSlugTaken
		}
	}

	if upd.HomePage != nil && *upd.HomePage != "" {
		page, err := FindContent(ctx, db, PageKind, *upd.HomePage)
		if err != nil {
			return nil, err
		}
		if page.ProjectID != id {
			return nil, types.NotFoundf("page #%s is not part of project #%s", page.ID, id)
		}
	}

	updates := map[string]interface{}{
		"modified":    now(),
		"modified_by": caller,
	}
	if upd.Name != nil && *upd.Name != "" {
		updates["name"] = *upd.Name
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Slug != nil && *upd.Slug != "" {
		updates["slug"] = *upd.Slug
	}
	if upd.HomePage != nil {
		updates["home_page"] = *upd.HomePage
	}

	err := db.Model(&models.Project{}).
		Where("id = ? AND owner = ?", id, caller).
		Updates(updates).Error
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, errSlugTaken
		}
		return nil, err
	}

	return FindProject(ctx, db, id)
}

// DeleteProject deletes a project owned by caller and reports whether a row was removed
func DeleteProject(ctx context.Context, db *gorm.DB, id, caller string) (bool, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND owner = ?", id, caller).
		Delete(&models.Project{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
