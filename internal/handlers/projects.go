package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/pagesdb/internal/middleware"
	"github.com/localnerve/pagesdb/internal/services"
	"github.com/localnerve/pagesdb/internal/utils"
	"gorm.io/gorm"
)

// ProjectHandler handles project routes. Every route requires a session.
type ProjectHandler struct {
	DB *gorm.DB
}

// CreateProjectRequest is the body of POST /api/projects
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1024"`
	Slug        string `json:"slug" validate:"omitempty,max=255"`
}

// UpdateProjectRequest is the body of PUT /api/projects/:id. Absent fields are left untouched.
type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1024"`
	Slug        *string `json:"slug" validate:"omitempty,max=255"`
	HomePage    *string `json:"homePage" validate:"omitempty,max=32"`
}

// Create handles POST /api/projects
// @Summary Create a project
// @Description Creates a project in the caller's active space together with its Home page
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body CreateProjectRequest true "Project"
// @Success 201 {object} models.Project
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects [post]
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	if session == nil {
		return unauthorized(c, "project.create")
	}

	var body CreateProjectRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ValidationErrorResponse(c, err.Error())
	}

	project, _, err := services.CreateProject(c.UserContext(), h.DB, session.User.ID, services.ProjectInput{
		Name:        body.Name,
		Description: body.Description,
		Slug:        body.Slug,
		SpaceID:     session.ActiveSpaceID,
	})
	if err != nil {
		return serviceError(c, err, "project.create")
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// List handles GET /api/projects
// @Summary List the caller's projects
// @Tags Projects
// @Produce json
// @Success 200 {array} models.Project
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects [get]
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	caller := middleware.CallerID(c)
	if caller == "" {
		return unauthorized(c, "project.list")
	}
	projects, err := services.ListProjects(c.UserContext(), h.DB, caller)
	if err != nil {
		return serviceError(c, err, "project.list")
	}
	return c.JSON(projects)
}

// Get handles GET /api/projects/:idOrSlug
// @Summary Get a project
// @Description Resolves the token as a slug, then as an id. Projects owned by others are not found.
// @Tags Projects
// @Produce json
// @Param idOrSlug path string true "Project slug or ID"
// @Success 200 {object} models.Project
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{idOrSlug} [get]
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := services.ResolveOwnedProject(c.UserContext(), h.DB, c.Params("idOrSlug"), middleware.CallerID(c))
	if err != nil {
		return serviceError(c, err, "project.get")
	}
	return c.JSON(project)
}

// Pages handles GET /api/projects/:idOrSlug/pages
// @Summary List a project's pages
// @Tags Projects
// @Produce json
// @Param idOrSlug path string true "Project slug or ID"
// @Success 200 {array} models.Content
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{idOrSlug}/pages [get]
func (h *ProjectHandler) Pages(c *fiber.Ctx) error {
	project, err := services.ResolveOwnedProject(c.UserContext(), h.DB, c.Params("idOrSlug"), middleware.CallerID(c))
	if err != nil {
		return serviceError(c, err, "project.pages")
	}
	pages, err := services.ListByProject(c.UserContext(), h.DB, services.PageKind, project.ID)
	if err != nil {
		return serviceError(c, err, "project.pages")
	}
	return c.JSON(pages)
}

// Update handles PUT /api/projects/:id
// @Summary Update a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param body body UpdateProjectRequest true "Fields to change"
// @Success 200 {object} models.Project
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	caller := middleware.CallerID(c)
	if caller == "" {
		return unauthorized(c, "project.update")
	}

	var body UpdateProjectRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ValidationErrorResponse(c, err.Error())
	}

	id := c.Params("id")
	existing, err := services.FindProject(c.UserContext(), h.DB, id)
	if err != nil {
		return serviceError(c, err, "project.update")
	}
	if !services.Owns(existing.Owner, caller) {
		return utils.NotFoundResponse(c, "Project not found")
	}

	project, err := services.UpdateProject(c.UserContext(), h.DB, id, caller, services.ProjectUpdate{
		Name:        body.Name,
		Description: body.Description,
		Slug:        body.Slug,
		HomePage:    body.HomePage,
	})
	if err != nil {
		return serviceError(c, err, "project.update")
	}
	return c.JSON(project)
}

// Delete handles DELETE /api/projects/:id
// @Summary Delete a project
// @Description Deletes only a project the caller owns. Its pages are kept.
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	caller := middleware.CallerID(c)
	if caller == "" {
		return unauthorized(c, "project.delete")
	}

	id := c.Params("id")
	deleted, err := services.DeleteProject(c.UserContext(), h.DB, id, caller)
	if err != nil {
		return serviceError(c, err, "project.delete")
	}
	if !deleted {
		return utils.NotFoundResponse(c, "Project not found")
	}
	return utils.MutationSuccessResponse(c, "Project #"+id+" deleted")
}
