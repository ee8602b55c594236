package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPingService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	assert.NoError(t, PingService(srv.URL, time.Second))
	assert.NoError(t, PingAuthorizer(srv.URL))
}

func TestPingServiceErrors(t *testing.T) {
	assert.Error(t, PingService("http://127.0.0.1:1", 200*time.Millisecond))
	assert.ErrorContains(t, PingService("not a url", time.Second), "missing host")
	assert.Error(t, PingService("http://[::1", time.Second))
}
