package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP_HeaderPriority(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.10:41234"

	assert.Equal(t, "192.0.2.10", ClientIP(req))

	req.Header.Set("CF-Connecting-IP", "203.0.113.3")
	assert.Equal(t, "203.0.113.3", ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.2")
	assert.Equal(t, "203.0.113.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 198.51.100.7")
	assert.Equal(t, "203.0.113.1", ClientIP(req))
}

func TestClientIP_SingleForwardedEntry(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5")

	assert.Equal(t, "203.0.113.5", ClientIP(req))
}

func TestDeriveKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.10:41234"

	assert.Equal(t, "192.0.2.10", DeriveKey(req, ""))
	assert.Equal(t, "192.0.2.10:u-42", DeriveKey(req, "u-42"))
}
