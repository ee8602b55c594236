package middleware

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/pagesdb/internal/services"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SessionCookie is the Authorizer session cookie
const SessionCookie = "cookie_session"

const sessionLocal = "session"

// SessionValidator validates Authorizer session cookies
type SessionValidator interface {
	Init(requestProtocol, requestHost string) error
	ValidateSession(ctx context.Context, cookie string, roles []string) (*services.SessionUser, error)
}

// AuthUser requires a valid session with the user role
func AuthUser(v SessionValidator, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := authenticate(c, v, db, []string{"user"})
		if err != nil {
			return &types.CustomError{
				Code:    fiber.StatusUnauthorized,
				Message: err.Error(),
				Type:    "data.authorization.user",
			}
		}
		c.Locals(sessionLocal, session)
		return c.Next()
	}
}

// OptionalUser attaches the session when the request carries a valid one.
// Anonymous and invalid sessions continue without a caller.
func OptionalUser(v SessionValidator, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Cookies(SessionCookie) == "" {
			return c.Next()
		}
		session, err := authenticate(c, v, db, []string{"user"})
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("Continuing anonymously")
			return c.Next()
		}
		c.Locals(sessionLocal, session)
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, v SessionValidator, db *gorm.DB, roles []string) (*services.Session, error) {
	cookie := c.Cookies(SessionCookie)
	if cookie == "" {
		return nil, fmt.Errorf("Authorizer cookie %q not found", SessionCookie)
	}

	if err := v.Init(c.Protocol(), c.Hostname()); err != nil {
		return nil, fmt.Errorf("Authorizer unavailable: %v", err)
	}

	user, err := v.ValidateSession(c.UserContext(), cookie, roles)
	if err != nil {
		return nil, fmt.Errorf("Invalid session: %v", err)
	}

	spaceID, err := services.EnsurePersonalSpace(c.UserContext(), db, *user)
	if err != nil {
		log.Error().Err(err).Str("user", user.ID).Msg("Failed to resolve active space")
	}

	return &services.Session{User: *user, ActiveSpaceID: spaceID}, nil
}

// CurrentSession returns the request's session, or nil for anonymous requests
func CurrentSession(c *fiber.Ctx) *services.Session {
	session, _ := c.Locals(sessionLocal).(*services.Session)
	return session
}

// CallerID returns the authenticated user id, or "" for anonymous requests
func CallerID(c *fiber.Ctx) string {
	if session := CurrentSession(c); session != nil {
		return session.User.ID
	}
	return ""
}
