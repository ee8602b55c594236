package services

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/localnerve/pagesdb/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	users map[string]*SessionUser
	err   error
}

func (m *mapCache) Get(_ context.Context, key string) (*SessionUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[key], nil
}

func (m *mapCache) Set(_ context.Context, key string, user *SessionUser) error {
	m.users[key] = user
	return nil
}

func TestToSessionUser(t *testing.T) {
	given, family, nick := "Ada", "Lovelace", "ada"

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"given and family", map[string]any{"id": "u1", "given_name": given, "family_name": family}, "Ada Lovelace"},
		{"given only", map[string]any{"id": "u1", "given_name": given}, "Ada"},
		{"nickname", map[string]any{"id": "u1", "nickname": nick, "preferred_username": "ignored"}, "ada"},
		{"preferred username", map[string]any{"id": "u1", "preferred_username": "lovelace"}, "lovelace"},
		{"no name", map[string]any{"id": "u1"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := toSessionUser(tt.in)
			require.NoError(t, err)
			assert.Equal(t, "u1", user.ID)
			assert.Equal(t, tt.want, user.Name)
		})
	}
}

func TestToSessionUserCopiesEmailAndRoles(t *testing.T) {
	user, err := toSessionUser(map[string]any{"id": "u1", "email": "ada@example.com", "roles": []string{"user", "admin"}})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, []string{"user", "admin"}, user.Roles)
}

func TestToSessionUserRequiresID(t *testing.T) {
	_, err := toSessionUser(map[string]any{"email": "ada@example.com"})
	assert.ErrorContains(t, err, "user ID not found")

	_, err = toSessionUser(func() {})
	assert.ErrorContains(t, err, "invalid user data format")
}

func TestValidateSessionCacheHit(t *testing.T) {
	cached := &SessionUser{ID: "u1", Name: "Ada"}
	cache := &mapCache{users: map[string]*SessionUser{
		SessionKey("cookie", []string{"user"}): cached,
	}}
	auth := NewAuthenticator(&config.Config{}, cache)

	user, err := auth.ValidateSession(context.Background(), "cookie", []string{"user"})
	require.NoError(t, err)
	assert.Same(t, cached, user)
}

func TestValidateSessionWithoutClient(t *testing.T) {
	cache := &mapCache{users: map[string]*SessionUser{}, err: errors.New("cache down")}
	auth := NewAuthenticator(&config.Config{}, cache)

	_, err := auth.ValidateSession(context.Background(), "cookie", []string{"user"})
	assert.ErrorContains(t, err, "not initialized")
}

func TestInitRetriesAfterFailure(t *testing.T) {
	// Reserve a port, then leave it closed
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	auth := NewAuthenticator(&config.Config{AuthzURL: "http://" + addr, AuthzClientID: "pagesdb"}, nil)

	err = auth.Init("http", "localhost")
	require.Error(t, err)
	assert.ErrorContains(t, err, "authorizer ping failed")
	assert.Nil(t, auth.authorizerClient())

	ln, err = net.Listen("tcp", addr)
	require.NoError(t, err)
	defer ln.Close()

	require.NoError(t, auth.Init("http", "localhost"))
	client := auth.authorizerClient()
	require.NotNil(t, client)

	// Once created the client is reused without another ping
	require.NoError(t, ln.Close())
	require.NoError(t, auth.Init("http", "localhost"))
	assert.Same(t, client, auth.authorizerClient())
}
