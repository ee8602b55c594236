package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/pagesdb/internal/logging"
	"github.com/localnerve/pagesdb/internal/services"
	"github.com/localnerve/pagesdb/internal/testutil"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

// stubValidator accepts the cookies it knows
type stubValidator struct {
	users   map[string]services.SessionUser
	initErr error
	inits   int
}

func (s *stubValidator) Init(string, string) error {
	s.inits++
	return s.initErr
}

func (s *stubValidator) ValidateSession(_ context.Context, cookie string, _ []string) (*services.SessionUser, error) {
	user, ok := s.users[cookie]
	if !ok {
		return nil, errors.New("unknown cookie")
	}
	return &user, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		return c.Status(customErr.Code).JSON(customErr)
	}
	return fiber.DefaultErrorHandler(c, err)
}

func newAuthApp(t *testing.T, v SessionValidator) *fiber.App {
	t.Helper()
	db := testutil.NewTestDB(t)
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})

	whoami := func(c *fiber.Ctx) error {
		session := CurrentSession(c)
		if session == nil {
			return c.JSON(fiber.Map{"caller": CallerID(c)})
		}
		return c.JSON(fiber.Map{"caller": CallerID(c), "space": session.ActiveSpaceID})
	}
	app.Get("/required", AuthUser(v, db), whoami)
	app.Get("/optional", OptionalUser(v, db), whoami)
	return app
}

func TestAuthUser(t *testing.T) {
	v := &stubValidator{users: map[string]services.SessionUser{"good": {ID: "user-1", Name: "Ada"}}}
	app := newAuthApp(t, v)

	resp, err := app.Test(testutil.WithSession(httptest.NewRequest("GET", "/required", nil), "good"))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	var body map[string]string
	testutil.ParseJSON(t, resp, &body)
	assert.Equal(t, "user-1", body["caller"])
	assert.NotEmpty(t, body["space"])
}

func TestAuthUserRejects(t *testing.T) {
	v := &stubValidator{users: map[string]services.SessionUser{}}
	app := newAuthApp(t, v)

	resp, err := app.Test(httptest.NewRequest("GET", "/required", nil))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusUnauthorized)

	var body types.CustomError
	testutil.ParseJSON(t, resp, &body)
	assert.Equal(t, "data.authorization.user", body.Type)
	assert.Contains(t, body.Message, SessionCookie)

	resp, err = app.Test(testutil.WithSession(httptest.NewRequest("GET", "/required", nil), "bad"))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusUnauthorized)
}

func TestAuthUserAuthorizerDown(t *testing.T) {
	v := &stubValidator{initErr: errors.New("down")}
	app := newAuthApp(t, v)

	resp, err := app.Test(testutil.WithSession(httptest.NewRequest("GET", "/required", nil), "good"))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusUnauthorized)

	var body types.CustomError
	testutil.ParseJSON(t, resp, &body)
	assert.Contains(t, body.Message, "Authorizer unavailable")
}

func TestOptionalUser(t *testing.T) {
	v := &stubValidator{users: map[string]services.SessionUser{"good": {ID: "user-1"}}}
	app := newAuthApp(t, v)

	tests := []struct {
		name   string
		cookie string
		caller string
	}{
		{"anonymous", "", ""},
		{"invalid session", "bad", ""},
		{"valid session", "good", "user-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/optional", nil)
			if tt.cookie != "" {
				testutil.WithSession(req, tt.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			testutil.AssertStatus(t, resp, fiber.StatusOK)

			var body map[string]string
			testutil.ParseJSON(t, resp, &body)
			assert.Equal(t, tt.caller, body["caller"])
		})
	}

	// Anonymous requests never reach the Authorizer
	before := v.inits
	_, err := app.Test(httptest.NewRequest("GET", "/optional", nil))
	require.NoError(t, err)
	assert.Equal(t, before, v.inits)
}

func TestVersionMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", VersionMiddleware(), func(c *fiber.Ctx) error {
		return c.SendString(APIVersion(c))
	})

	tests := []struct {
		header string
		want   string
	}{
		{"", DefaultAPIVersion},
		{"1", DefaultAPIVersion},
		{"1.0", DefaultAPIVersion},
		{"2.0.0", "2.0.0"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("X-Api-Version", tt.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.Header.Get("X-Api-Version"))
		assert.Equal(t, tt.want, testutil.ReadBody(t, resp))
	}
}

func TestAPIVersionDefault(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(APIVersion(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIVersion, testutil.ReadBody(t, resp))
}

func TestRequestLogger(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(RequestLogger())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return &types.CustomError{Code: fiber.StatusTeapot, Message: "short and stout", Type: "test"}
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	rid := resp.Header.Get(RequestIDHeader)
	assert.Len(t, rid, 36)
	assert.Equal(t, rid, testutil.ReadBody(t, resp))

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusTeapot)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestLoggerAPIVersion(t *testing.T) {
	var buf bytes.Buffer
	origLogger, origContext, origLevel := log.Logger, zerolog.DefaultContextLogger, zerolog.GlobalLevel()
	logging.SetupWriter(&buf, "info", "json")
	t.Cleanup(func() {
		log.Logger = origLogger
		zerolog.DefaultContextLogger = origContext
		zerolog.SetGlobalLevel(origLevel)
	})

	app := fiber.New()
	app.Use(RequestLogger())
	app.Group("/api", VersionMiddleware()).Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	app.Get("/app", func(c *fiber.Ctx) error {
		return c.SendString("site")
	})

	req := httptest.NewRequest("GET", "/api/ping", nil)
	req.Header.Set("X-Api-Version", "2.0.0")
	_, err := app.Test(req)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"api_version":"2.0.0"`)

	buf.Reset()
	_, err = app.Test(httptest.NewRequest("GET", "/api/ping", nil))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"api_version":"`+DefaultAPIVersion+`"`)

	buf.Reset()
	_, err = app.Test(httptest.NewRequest("GET", "/app", nil))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"path":"/app"`)
	assert.NotContains(t, buf.String(), "api_version")
}
