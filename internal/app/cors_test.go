package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOriginHost(t *testing.T) {
	assert.Equal(t, "admin.example.com", extractOriginHost("https://admin.example.com"))
	assert.Equal(t, "localhost:3000", extractOriginHost("http://localhost:3000"))
	assert.Equal(t, "admin.example.com", extractOriginHost("https://Admin.Example.com"))
	assert.Equal(t, "not a url", extractOriginHost("not a url"))
}

func TestMatchOriginPattern(t *testing.T) {
	tests := []struct {
		pattern, host string
		want          bool
	}{
		{"disruptions.example.com", "disruptions.example.com", true},
		{"*.example.com", "admin.example.com", true},
		{"*.example.com", "example.com", false},
		{"*.example.com", "admin.example.org", false},
		{"localhost:*", "localhost:3000", true},
		{"localhost:*", "localhost.evil.com", false},
		{"disruptions.example.com", "evil.com", false},
		{"https://*.example.com", "admin.example.com", true},
		{"Disruptions.Example.com", "disruptions.example.com", true},
		{"http://localhost:*", "localhost:5173", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchOriginPattern(tt.pattern, tt.host), "%s vs %s", tt.pattern, tt.host)
	}
}

func TestAllowOrigins(t *testing.T) {
	allow := allowOrigins([]string{"https://*.example.com", "localhost:*"})
	assert.True(t, allow("https://Admin.example.com"))
	assert.True(t, allow("http://localhost:3000"))
	assert.False(t, allow("https://example.org"))
}
