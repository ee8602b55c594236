// Package server assembles the fiber application: middleware, routes and the error handler.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/pagesdb/internal/config"
	"github.com/localnerve/pagesdb/internal/handlers"
	"github.com/localnerve/pagesdb/internal/middleware"
	"github.com/localnerve/pagesdb/internal/services"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/localnerve/pagesdb/internal/utils"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes need. Metrics and Cache may be nil.
// Context is the server lifetime and defaults to context.Background.
type Deps struct {
	Context   context.Context
	Config    *config.Config
	DB        *gorm.DB
	Validator middleware.SessionValidator
	AI        *services.AIService
	Cache     services.Pinger
	Metrics   *fiberprometheus.FiberPrometheus
}

// New builds the application with every route registered
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.CORSOrigins,
		AllowCredentials: deps.Config.CORSOrigins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Api-Version, X-Request-Id",
		ExposeHeaders:    "X-Save-Outcome, X-Request-Id, X-Api-Version",
	}))

	// Prometheus metrics
	if deps.Metrics != nil {
		deps.Metrics.RegisterAt(app, "/metrics")
		app.Use(deps.Metrics.Middleware)
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	health := &handlers.HealthHandler{Config: deps.Config, DB: deps.DB, Cache: deps.Cache}
	app.Get("/health", health.Health)

	// Public site rendering
	site := &handlers.SiteHandler{DB: deps.DB}
	app.Get("/view/:id", site.ViewSnippet)
	app.Get("/app/:slug", site.Home)
	app.Get("/app/:slug/p/:pageId", site.PageByID)
	app.Get("/app/:slug/:pageId/preview", site.Preview)
	app.Post("/app/:slug/:pageId/preview", site.Preview)
	app.Get("/app/:slug/:path", site.PageByPath)

	// API routes under /api
	api := app.Group("/api", middleware.VersionMiddleware())

	optionalUser := middleware.OptionalUser(deps.Validator, deps.DB)
	authUser := middleware.AuthUser(deps.Validator, deps.DB)

	registerContent(api, "/pages", &handlers.ContentHandler{DB: deps.DB, Kind: services.PageKind}, optionalUser, authUser)
	registerContent(api, "/play/snippets", &handlers.ContentHandler{DB: deps.DB, Kind: services.SnippetKind}, optionalUser, authUser)

	projects := &handlers.ProjectHandler{DB: deps.DB}
	api.Post("/projects", authUser, projects.Create)
	api.Get("/projects", authUser, projects.List)
	api.Get("/projects/:idOrSlug", authUser, projects.Get)
	api.Get("/projects/:idOrSlug/pages", authUser, projects.Pages)
	api.Put("/projects/:id", authUser, projects.Update)
	api.Delete("/projects/:id", authUser, projects.Delete)

	spaces := &handlers.SpaceHandler{DB: deps.DB}
	api.Get("/session", authUser, spaces.Session)
	api.Get("/spaces", authUser, spaces.List)
	api.Get("/spaces/:slug/members", authUser, spaces.Members)

	if deps.AI != nil {
		ai := &handlers.AIHandler{AI: deps.AI, BaseContext: deps.Context}
		aiGroup := api.Group("/ai", limiter.New(limiter.Config{
			Max:        deps.Config.AIRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return utils.ErrorResponse(c, "Too many AI requests", fiber.StatusTooManyRequests, "ai.ratelimit")
			},
		}))
		aiGroup.Post("/generate", ai.Generate)
		aiGroup.Get("/models", ai.Models)
		aiGroup.Post("/stream", ai.Stream)
	}

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, "[404] Resource Not Found", fiber.StatusNotFound, "notfound")
	})

	return app
}

func registerContent(api fiber.Router, prefix string, h *handlers.ContentHandler, optionalUser, authUser fiber.Handler) {
	api.Post(prefix, optionalUser, h.Save)
	api.Get(prefix, optionalUser, h.List)
	api.Get(prefix+"/:id", h.Get)
	api.Get(prefix+"/:id/versions", h.Versions)
	api.Delete(prefix+"/:id", authUser, h.Delete)
}

// ErrorHandler renders errors that escape the handlers in the standard envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var customErr *types.CustomError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &customErr):
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return utils.ErrorResponse(c, message, code, errorType)
}
