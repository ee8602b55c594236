package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/pagesdb/internal/middleware"
	"github.com/localnerve/pagesdb/internal/models"
	"github.com/localnerve/pagesdb/internal/services"
	"gorm.io/gorm"
)

// SpaceHandler handles the session and space routes
type SpaceHandler struct {
	DB *gorm.DB
}

// MembersResponse is a space with its members
type MembersResponse struct {
	Space   *models.Space      `json:"space"`
	Members []models.SpaceUser `json:"members"`
}

// Session handles GET /api/session
// @Summary Get the current session
// @Tags Spaces
// @Produce json
// @Success 200 {object} services.Session
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /session [get]
func (h *SpaceHandler) Session(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	if session == nil {
		return unauthorized(c, "session")
	}
	return c.JSON(session)
}

// List handles GET /api/spaces
// @Summary List the caller's spaces
// @Tags Spaces
// @Produce json
// @Success 200 {array} models.Space
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /spaces [get]
func (h *SpaceHandler) List(c *fiber.Ctx) error {
	caller := middleware.CallerID(c)
	if caller == "" {
		return unauthorized(c, "space.list")
	}
	spaces, err := services.ListSpaces(c.UserContext(), h.DB, caller)
	if err != nil {
		return serviceError(c, err, "space.list")
	}
	return c.JSON(spaces)
}

// Members handles GET /api/spaces/:slug/members
// @Summary List the members of a space
// @Description Spaces the caller does not belong to are not found
// @Tags Spaces
// @Produce json
// @Param slug path string true "Space slug"
// @Success 200 {object} MembersResponse
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /spaces/{slug}/members [get]
func (h *SpaceHandler) Members(c *fiber.Ctx) error {
	caller := middleware.CallerID(c)
	if caller == "" {
		return unauthorized(c, "space.members")
	}
	space, members, err := services.ListMembers(c.UserContext(), h.DB, c.Params("slug"), caller)
	if err != nil {
		return serviceError(c, err, "space.members")
	}
	return c.JSON(MembersResponse{Space: space, Members: members})
}
