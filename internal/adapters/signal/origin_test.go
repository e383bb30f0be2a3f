package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginPolicy(t *testing.T) {
	p := NewOriginPolicy([]string{" HTTP://Localhost:5173 ", "not a url", "", "http://localhost:5173"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://LOCALHOST:5173", true},
		{"http://localhost:3000", false},
		{"https://localhost:5173", false},
		{"::", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Allowed(tt.origin), "origin %q", tt.origin)
	}
}

func TestOriginPolicy_Wildcard(t *testing.T) {
	p := NewOriginPolicy([]string{"*"})
	assert.True(t, p.Allowed("https://anything.example.com"))

	var nilPolicy *OriginPolicy
	assert.True(t, nilPolicy.Allowed("https://anything.example.com"))
}
