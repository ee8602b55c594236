// content.go
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
	"strings"
	"time"

	"github.com/localnerve/pagesdb/internal/database"
	"github.com/localnerve/pagesdb/internal/models"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/localnerve/pagesdb/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// DefaultContentName names records saved without a name
const DefaultContentName = "Untitled Page"

// Kind selects one of the two content deployments
type Kind struct {
	Name         string
	Table        string
	VersionTable string
	// RefKey is the JSON key that links a version to its record
	RefKey string
	// PageFields enables metaTitle, slug, path and addToNavigation
	PageFields bool
}

var (
	PageKind = Kind{
		Name:         "page",
		Table:        database.PagesTable,
		VersionTable: database.PageVersionsTable,
		RefKey:       "pageId",
		PageFields:   true,
	}
	SnippetKind = Kind{
		Name:         "snippet",
		Table:        database.SnippetsTable,
		VersionTable: database.SnippetVersionsTable,
		RefKey:       "snippetId",
	}
)

// SaveInput is a save request. Nil pointers mean "not supplied".
type SaveInput struct {
	ID              string
	ProjectID       string
	Code            string
	Name            string
	MetaTitle       *string
	Slug            *string
	Path            *string
	AddToNavigation *bool
}

// SaveOutcome tells which path a save took
type SaveOutcome string

const (
	SaveCreated   SaveOutcome = "created"
	SaveForked    SaveOutcome = "forked"
	SaveVersioned SaveOutcome = "versioned"
)

// SaveResult is the record after a save and, when versioned, the snapshot taken
type SaveResult struct {
	Content *models.Content
	Outcome SaveOutcome
	Version *models.Version
}

// now is the clock for audit fields
var now = func() time.Time {
	return time.Now().UTC()
}

// Owns reports whether caller may mutate a record owned by owner. Anonymous callers own nothing.
func Owns(owner, caller string) bool {
	return caller != "" && owner == caller
}

func quiet(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})
}

// lockForUpdate adds a row lock where the dialect supports one
func lockForUpdate(db *gorm.DB) *gorm.DB {
	switch db.Dialector.Name() {
	case "mysql", "postgres":
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// SaveContent runs the save state machine for a page or snippet.
//
// An id that is missing, unknown, or owned by someone else creates a new
// record owned by the caller. An id owned by the caller snapshots the current
// code into a Version and updates the record in place, in one transaction.
// A new record only joins a project the caller owns.
func SaveContent(ctx context.Context, db *gorm.DB, kind Kind, in SaveInput, caller string) (*SaveResult, error) {
	db = db.WithContext(ctx)
	outcome := SaveCreated

	if in.ID != "" {
		var result *SaveResult
		err := db.Transaction(func(tx *gorm.DB) error {
			var existing models.Content
			err := lockForUpdate(quiet(tx)).Table(kind.Table).Where("id = ?", in.ID).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			if !Owns(existing.Owner, caller) {
				outcome = SaveForked
				return nil
			}

			version := snapshot(&existing)
			if err := tx.Table(kind.VersionTable).Create(&version).Error; err != nil {
				return err
			}

			ts := now()
			updates := kind.updateFields(in, caller, ts)
			res := tx.Table(kind.Table).Where("id = ? AND owner = ?", existing.ID, caller).Updates(updates)
			if res.Error != nil {
				return res.Error
			}

			kind.apply(&existing, in, caller, ts)
			result = &SaveResult{Content: &existing, Outcome: SaveVersioned, Version: &version}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if result != nil {
			recordSave(kind, result.Outcome)
			return result, nil
		}
	}

	projectID, err := ownedProjectID(db, in.ProjectID, caller)
	if err != nil {
		return nil, err
	}
	in.ProjectID = projectID

	record, err := createContent(db, kind, in, caller)
	if err != nil {
		return nil, err
	}
	recordSave(kind, outcome)
	return &SaveResult{Content: record, Outcome: outcome}, nil
}

// snapshot builds the version for a record about to be overwritten. Its
// created audit fields are the record's last modification, not the time of writing.
func snapshot(existing *models.Content) models.Version {
	created := existing.Modified
	if created.IsZero() {
		created = existing.Created
	}
	createdBy := existing.ModifiedBy
	if createdBy == "" {
		createdBy = existing.CreatedBy
	}
	return models.Version{
		ID:        utils.NewID(),
		ContentID: existing.ID,
		Code:      existing.Code,
		VersionID: utils.NewVersionID(),
		Owner:     existing.Owner,
		Created:   created,
		CreatedBy: createdBy,
	}
}

// ownedProjectID returns projectID when that project exists and belongs to caller, otherwise ""
func ownedProjectID(db *gorm.DB, projectID, caller string) (string, error) {
	if projectID == "" || caller == "" {
		return "", nil
	}
	var project models.Project
	err := quiet(db).Select("id", "owner").Where("id = ?", projectID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !Owns(project.Owner, caller) {
		return "", nil
	}
	return project.ID, nil
}

func createContent(db *gorm.DB, kind Kind, in SaveInput, caller string) (*models.Content, error) {
	ts := now()
	record := &models.Content{
		ID:         utils.NewID(),
		ProjectID:  in.ProjectID,
		Name:       in.Name,
		Code:       models.Markup(in.Code),
		Owner:      caller,
		Created:    ts,
		CreatedBy:  caller,
		Modified:   ts,
		ModifiedBy: caller,
	}
	if record.Name == "" {
		record.Name = DefaultContentName
	}

	if kind.PageFields {
		record.Slug = strings.ToLower(record.ID)
		if in.Slug != nil && *in.Slug != "" {
			record.Slug = *in.Slug
		}
		if in.MetaTitle != nil {
			record.MetaTitle = *in.MetaTitle
		}
		if in.Path != nil {
			record.Path = *in.Path
		}
		if in.AddToNavigation != nil {
			record.AddToNavigation = *in.AddToNavigation
		}
	}

	if err := db.Table(kind.Table).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// updateFields is the column set for an owner's save. Code is always written.
func (k Kind) updateFields(in SaveInput, caller string, ts time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"code":        models.Markup(in.Code),
		"modified":    ts,
		"modified_by": caller,
	}
	if in.Name != "" {
		updates["name"] = in.Name
	}
	if !k.PageFields {
		return updates
	}
	if in.MetaTitle != nil {
		updates["meta_title"] = *in.MetaTitle
	}
	if in.Slug != nil {
		updates["slug"] = *in.Slug
	}
	if in.Path != nil {
		updates["path"] = *in.Path
	}
	if in.AddToNavigation != nil {
		updates["add_to_navigation"] = *in.AddToNavigation
	}
	return updates
}

// apply mirrors updateFields onto the in-memory record
func (k Kind) apply(record *models.Content, in SaveInput, caller string, ts time.Time) {
	record.Code = models.Markup(in.Code)
	record.Modified = ts
	record.ModifiedBy = caller
	if in.Name != "" {
		record.Name = in.Name
	}
	if !k.PageFields {
		return
	}
	if in.MetaTitle != nil {
		record.MetaTitle = *in.MetaTitle
	}
	if in.Slug != nil {
		record.Slug = *in.Slug
	}
	if in.Path != nil {
		record.Path = *in.Path
	}
	if in.AddToNavigation != nil {
		record.AddToNavigation = *in.AddToNavigation
	}
}

// FindContent returns one record or ErrNotFound
func FindContent(ctx context.Context, db *gorm.DB, kind Kind, id string) (*models.Content, error) {
	var record models.Content
	err := quiet(db.WithContext(ctx)).Table(kind.Table).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFoundf("%s #%s not found", kind.Name, id)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListContent returns the owner's records, or every record for an anonymous caller, newest modification first
func ListContent(ctx context.Context, db *gorm.DB, kind Kind, owner string) ([]models.Content, error) {
	query := db.WithContext(ctx).Table(kind.Table)
	if owner != "" {
		query = query.Where("owner = ?", owner)
	}
	records := []models.Content{}
	if err := query.Order("modified DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListByProject returns a project's records, newest modification first
func ListByProject(ctx context.Context, db *gorm.DB, kind Kind, projectID string) ([]models.Content, error) {
	records := []models.Content{}
	err := db.WithContext(ctx).Table(kind.Table).
		Where("project_id = ?", projectID).
		Order("modified DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindByPath returns the page addressed by path within a project. When
// several pages share a path the oldest one wins.
func FindByPath(ctx context.Context, db *gorm.DB, projectID, path string) (*models.Content, error) {
	query := quiet(db.WithContext(ctx)).Table(PageKind.Table)
	if db.Dialector.Name() == "mysql" {
		query = query.Clauses(hints.UseIndex("idx_pages_path"))
	}

	var record models.Content
	err := query.Where("project_id = ? AND path = ?", projectID, path).
		Order("created ASC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFoundf("page with path %q not found", path)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListVersions returns the version chain of a record, most recent first
func ListVersions(ctx context.Context, db *gorm.DB, kind Kind, contentID string) ([]models.Version, error) {
	versions := []models.Version{}
	err := db.WithContext(ctx).Table(kind.VersionTable).
		Where("content_id = ?", contentID).
		Order("created DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// DeleteContent deletes a record owned by caller. Records that are missing or
// owned by someone else are reported as ErrNotFound.
func DeleteContent(ctx context.Context, db *gorm.DB, kind Kind, id, caller string) error {
	record, err := FindContent(ctx, db, kind, id)
	if err != nil {
		return err
	}
	if !Owns(record.Owner, caller) {
		return types.NotFoundf("%s #%s not found or you don't have permission", kind.Name, id)
	}
	return db.WithContext(ctx).Table(kind.Table).
		Where("id = ? AND owner = ?", id, caller).
		Delete(&models.Content{}).Error
}
