package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/pagesdb/internal/models"
	"github.com/localnerve/pagesdb/internal/services"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// SiteHandler renders published projects and snippets as HTML
type SiteHandler struct {
	DB *gorm.DB
}

type previewRequest struct {
	Code string `json:"code" form:"code"`
}

func (h *SiteHandler) sendHTML(c *fiber.Ctx, html string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

// siteError sends NotFound errors as plain text and logs the rest
func (h *SiteHandler) siteError(c *fiber.Ctx, err error) error {
	var classErr *types.ClassError
	if errors.Is(err, types.ErrNotFound) && errors.As(err, &classErr) {
		return c.Status(fiber.StatusNotFound).SendString(classErr.Message)
	}
	zerolog.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("Site render failed")
	return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
}

func (h *SiteHandler) render(c *fiber.Ctx, project *models.Project, page *models.Content) error {
	pages, err := services.ListByProject(c.UserContext(), h.DB, services.PageKind, project.ID)
	if err != nil {
		return h.siteError(c, err)
	}
	html, err := services.RenderSitePage(project, page, pages)
	if err != nil {
		return h.siteError(c, err)
	}
	return h.sendHTML(c, html)
}

// projectPage finds a page by id and requires it to belong to the project
func (h *SiteHandler) projectPage(c *fiber.Ctx, project *models.Project, pageID string) (*models.Content, error) {
	page, err := services.FindContent(c.UserContext(), h.DB, services.PageKind, pageID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.NotFoundf("Page not found")
		}
		return nil, err
	}
	if page.ProjectID != project.ID {
		return nil, types.NotFoundf("Page not found")
	}
	return page, nil
}

// Home handles GET /app/:slug
// @Summary Render a project's home page
// @Tags Site
// @Produce html
// @Param slug path string true "Project slug or ID"
// @Success 200 {string} string "HTML document"
// @Failure 404 {string} string
// @Router /app/{slug} [get]
func (h *SiteHandler) Home(c *fiber.Ctx) error {
	project, err := services.ResolveProject(c.UserContext(), h.DB, c.Params("slug"))
	if err != nil {
		return h.siteError(c, err)
	}
	if project.HomePage == "" {
		return c.Status(fiber.StatusNotFound).SendString("This project does not have a home page set.")
	}

	page, err := services.FindContent(c.UserContext(), h.DB, services.PageKind, project.HomePage)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Home page not found.")
		}
		return h.siteError(c, err)
	}
	return h.render(c, project, page)
}

// PageByID handles GET /app/:slug/p/:pageId
// @Summary Render a project page by id
// @Tags Site
// @Produce html
// @Param slug path string true "Project slug or ID"
// @Param pageId path string true "Page ID"
// @Success 200 {string} string "HTML document"
// @Failure 404 {string} string
// @Router /app/{slug}/p/{pageId} [get]
func (h *SiteHandler) PageByID(c *fiber.Ctx) error {
	project, err := services.ResolveProject(c.UserContext(), h.DB, c.Params("slug"))
	if err != nil {
		return h.siteError(c, err)
	}
	page, err := h.projectPage(c, project, c.Params("pageId"))
	if err != nil {
		return h.siteError(c, err)
	}
	return h.render(c, project, page)
}

// PageByPath handles GET /app/:slug/:path
// @Summary Render a project page by path
// @Description Looks the segment up as a page path first, then as a page id within the project
// @Tags Site
// @Produce html
// @Param slug path string true "Project slug or ID"
// @Param path path string true "Page path or ID"
// @Success 200 {string} string "HTML document"
// @Failure 404 {string} string
// @Router /app/{slug}/{path} [get]
func (h *SiteHandler) PageByPath(c *fiber.Ctx) error {
	project, err := services.ResolveProject(c.UserContext(), h.DB, c.Params("slug"))
	if err != nil {
		return h.siteError(c, err)
	}

	segment := c.Params("path")
	page, err := services.FindByPath(c.UserContext(), h.DB, project.ID, segment)
	if errors.Is(err, types.ErrNotFound) {
		page, err = h.projectPage(c, project, segment)
	}
	if err != nil {
		return h.siteError(c, err)
	}
	return h.render(c, project, page)
}

// Preview handles GET and POST /app/:slug/:pageId/preview
// @Summary Preview a page
// @Description A POSTed code replaces the stored code for this response only
// @Tags Site
// @Accept json,x-www-form-urlencoded
// @Produce html
// @Param slug path string true "Project slug or ID"
// @Param pageId path string true "Page ID"
// @Success 200 {string} string "HTML document"
// @Failure 404 {string} string
// @Router /app/{slug}/{pageId}/preview [get]
// @Router /app/{slug}/{pageId}/preview [post]
func (h *SiteHandler) Preview(c *fiber.Ctx) error {
	project, err := services.ResolveProject(c.UserContext(), h.DB, c.Params("slug"))
	if err != nil {
		return h.siteError(c, err)
	}
	page, err := h.projectPage(c, project, c.Params("pageId"))
	if err != nil {
		return h.siteError(c, err)
	}

	code := string(page.Code)
	if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
		var body previewRequest
		if err := c.BodyParser(&body); err == nil && body.Code != "" {
			code = body.Code
		}
	}

	html, err := services.BuildSnippetHTML(code)
	if err != nil {
		return h.siteError(c, err)
	}
	return h.sendHTML(c, html)
}

// ViewSnippet handles GET /view/:id
// @Summary View a snippet as a standalone document
// @Tags Site
// @Produce html
// @Param id path string true "Snippet ID"
// @Success 200 {string} string "HTML document"
// @Failure 404 {string} string
// @Router /view/{id} [get]
func (h *SiteHandler) ViewSnippet(c *fiber.Ctx) error {
	snippet, err := services.FindContent(c.UserContext(), h.DB, services.SnippetKind, c.Params("id"))
	if err != nil {
		return h.siteError(c, err)
	}
	html, err := services.BuildSnippetHTML(string(snippet.Code))
	if err != nil {
		return h.siteError(c, err)
	}
	return h.sendHTML(c, html)
}
