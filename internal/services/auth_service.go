package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/authorizerdev/authorizer-go"
	"github.com/localnerve/pagesdb/internal/config"
	"github.com/localnerve/pagesdb/internal/utils"
	"github.com/rs/zerolog/log"
)

// SessionUser is the identity behind a validated session
type SessionUser struct {
	ID    string   `json:"id"`
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Session is a validated session with the user's active space
type Session struct {
	User          SessionUser `json:"user"`
	ActiveSpaceID string      `json:"activeOrganizationId,omitempty"`
}

// authorizerUser is the subset of the Authorizer user we read
type authorizerUser struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	GivenName         *string  `json:"given_name"`
	FamilyName        *string  `json:"family_name"`
	Nickname          *string  `json:"nickname"`
	PreferredUsername *string  `json:"preferred_username"`
	Roles             []string `json:"roles"`
}

// Authenticator validates session cookies against Authorizer, with an optional cache
type Authenticator struct {
	cfg    *config.Config
	cache  SessionCache

	mu     sync.Mutex
	client *authorizer.AuthorizerClient
}

// NewAuthenticator returns an Authenticator. cache may be nil.
func NewAuthenticator(cfg *config.Config, cache SessionCache) *Authenticator {
	return &Authenticator{cfg: cfg, cache: cache}
}

// Init creates the Authorizer client on first successful use. The redirect URL is taken from
// the request that succeeds. Failures are not kept, the next request tries again.
func (a *Authenticator) Init(requestProtocol, requestHost string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return nil
	}

	// Ping the Authorizer service first
	if err := utils.PingAuthorizer(a.cfg.AuthzURL); err != nil {
		return fmt.Errorf("authorizer ping failed: %w", err)
	}

	redirectURL := fmt.Sprintf("%s://%s", requestProtocol, requestHost)
	log.Info().
		Str("authorizerURL", a.cfg.AuthzURL).
		Str("clientID", a.cfg.AuthzClientID).
		Str("redirectURL", redirectURL).
		Msg("Initializing Authorizer")

	client, err := authorizer.NewAuthorizerClient(a.cfg.AuthzClientID, a.cfg.AuthzURL, redirectURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create authorizer client: %w", err)
	}
	a.client = client
	return nil
}

func (a *Authenticator) authorizerClient() *authorizer.AuthorizerClient {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

// ValidateSession validates a session cookie for the given roles
func (a *Authenticator) ValidateSession(ctx context.Context, cookie string, roles []string) (*SessionUser, error) {
	key := SessionKey(cookie, roles)
	if a.cache != nil {
		user, err := a.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("Session cache read failed")
		} else if user != nil {
			return user, nil
		}
	}

	client := a.authorizerClient()
	if client == nil {
		return nil, fmt.Errorf("authorizer client not initialized")
	}

	// Convert roles to []*string
	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid || res.User == nil {
		return nil, fmt.Errorf("session is not valid")
	}

	user, err := toSessionUser(res.User)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, user); err != nil {
			log.Warn().Err(err).Msg("Session cache write failed")
		}
	}
	return user, nil
}

// toSessionUser reads the Authorizer user through its JSON form
func toSessionUser(v any) (*SessionUser, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("invalid user data format: %w", err)
	}
	var u authorizerUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("invalid user data format: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("user ID not found")
	}

	name := strings.TrimSpace(strings.Join([]string{deref(u.GivenName), deref(u.FamilyName)}, " "))
	for _, alt := range []*string{u.Nickname, u.PreferredUsername} {
		if name != "" {
			break
		}
		name = deref(alt)
	}

	return &SessionUser{ID: u.ID, Email: u.Email, Name: name, Roles: u.Roles}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
