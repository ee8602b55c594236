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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/pagesdb/internal/middleware"
	"github.com/localnerve/pagesdb/internal/models"
	"github.com/localnerve/pagesdb/internal/services"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/localnerve/pagesdb/internal/utils"
	"gorm.io/gorm"
)

// SaveOutcomeHeader reports which path a save took
const SaveOutcomeHeader = "X-Save-Outcome"

// ContentHandler serves one content deployment, pages or snippets
type ContentHandler struct {
	DB   *gorm.DB
	Kind services.Kind
}

// SaveRequest is the body of a page or snippet save. Page only fields are
// ignored for snippets.
type SaveRequest struct {
	ID              string          `json:"id" validate:"omitempty,max=32"`
	LegacyID        string          `json:"_id" validate:"omitempty,max=32"`
	ProjectID       string          `json:"projectId" validate:"omitempty,max=32"`
	Name            string          `json:"name" validate:"max=255"`
	Code            string          `json:"code"`
	MetaTitle       *string         `json:"metaTitle" validate:"omitempty,max=255"`
	Slug            *string         `json:"slug" validate:"omitempty,max=255"`
	Path            *string         `json:"path" validate:"omitempty,max=255"`
	AddToNavigation *types.FlexBool `json:"addToNavigation" swaggertype:"boolean"`
}

func (r *SaveRequest) input(kind services.Kind) services.SaveInput {
	in := services.SaveInput{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Code:      r.Code,
		Name:      r.Name,
	}
	if in.ID == "" {
		in.ID = r.LegacyID
	}
	if !kind.PageFields {
		return in
	}
	in.MetaTitle = r.MetaTitle
	in.Slug = r.Slug
	in.Path = r.Path
	if r.AddToNavigation != nil {
		nav := r.AddToNavigation.Bool()
		in.AddToNavigation = &nav
	}
	return in
}

func (h *ContentHandler) errorType(op string) string {
	return h.Kind.Name + "." + op
}

// Save handles POST /api/pages and POST /api/play/snippets
// @Summary Save a page or snippet
// @Description Creates a record, forks one the caller does not own, or versions and updates one the caller owns
// @Tags Content
// @Accept json
// @Produce json
// @Param body body SaveRequest true "Record to save"
// @Success 200 {object} models.Content "Versioned"
// @Success 201 {object} models.Content "Created or forked"
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /pages [post]
// @Router /play/snippets [post]
func (h *ContentHandler) Save(c *fiber.Ctx) error {
	var body SaveRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ValidationErrorResponse(c, err.Error())
	}

	result, err := services.SaveContent(c.UserContext(), h.DB, h.Kind, body.input(h.Kind), middleware.CallerID(c))
	if err != nil {
		return serviceError(c, err, h.errorType("save"))
	}

	status := fiber.StatusCreated
	if result.Outcome == services.SaveVersioned {
		status = fiber.StatusOK
	}
	c.Set(SaveOutcomeHeader, string(result.Outcome))
	return c.Status(status).JSON(result.Content)
}

// List handles GET /api/pages and GET /api/play/snippets
// @Summary List pages or snippets
// @Description Lists the caller's records, or every record for anonymous callers
// @Tags Content
// @Produce json
// @Success 200 {array} models.Content
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /pages [get]
// @Router /play/snippets [get]
func (h *ContentHandler) List(c *fiber.Ctx) error {
	records, err := services.ListContent(c.UserContext(), h.DB, h.Kind, middleware.CallerID(c))
	if err != nil {
		return serviceError(c, err, h.errorType("list"))
	}
	return c.JSON(records)
}

// Get handles GET /api/pages/:id and GET /api/play/snippets/:id
// @Summary Get a page or snippet
// @Tags Content
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} models.Content
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /pages/{id} [get]
// @Router /play/snippets/{id} [get]
func (h *ContentHandler) Get(c *fiber.Ctx) error {
	record, err := services.FindContent(c.UserContext(), h.DB, h.Kind, c.Params("id"))
	if err != nil {
		return serviceError(c, err, h.errorType("get"))
	}
	return c.JSON(record)
}

// Versions handles GET /api/pages/:id/versions and GET /api/play/snippets/:id/versions
// @Summary List the versions of a page or snippet
// @Description Most recent first. Each version names its record under pageId or snippetId.
// @Tags Content
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {array} map[string]interface{}
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /pages/{id}/versions [get]
// @Router /play/snippets/{id}/versions [get]
func (h *ContentHandler) Versions(c *fiber.Ctx) error {
	versions, err := services.ListVersions(c.UserContext(), h.DB, h.Kind, c.Params("id"))
	if err != nil {
		return serviceError(c, err, h.errorType("versions"))
	}
	return c.JSON(versionsBody(h.Kind, versions))
}

// Delete handles DELETE /api/pages/:id and DELETE /api/play/snippets/:id
// @Summary Delete a page or snippet
// @Tags Content
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /pages/{id} [delete]
// @Router /play/snippets/{id} [delete]
func (h *ContentHandler) Delete(c *fiber.Ctx) error {
	caller := middleware.CallerID(c)
	if caller == "" {
		return unauthorized(c, h.errorType("delete"))
	}

	id := c.Params("id")
	if err := services.DeleteContent(c.UserContext(), h.DB, h.Kind, id, caller); err != nil {
		return serviceError(c, err, h.errorType("delete"))
	}
	return utils.MutationSuccessResponse(c, h.Kind.Name+" #"+id+" deleted")
}

// versionsBody renders versions with the record link under the kind's key
func versionsBody(kind services.Kind, versions []models.Version) []fiber.Map {
	out := make([]fiber.Map, 0, len(versions))
	for _, v := range versions {
		item := fiber.Map{
			"_id":       v.ID,
			kind.RefKey: v.ContentID,
			"code":      v.Code,
			"versionId": v.VersionID,
			"created":   v.Created,
		}
		if v.Owner != "" {
			item["owner"] = v.Owner
		}
		if v.CreatedBy != "" {
			item["created_by"] = v.CreatedBy
		}
		out = append(out, item)
	}
	return out
}
