package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"bob@example.com", true},
		{"a.b+c@sub.domain.io", true},
		{"", false},
		{"bob", false},
		{"bob@example", false},
		{"bob @example.com", false},
		{"bob@@example.com", false},
		{"@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidFormat(tt.input))
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "trims, lowercases, and dedupes",
			input:    []string{"  A@X.com ", "b@y.org", "a@x.com", "B@Y.ORG"},
			expected: []string{"a@x.com", "b@y.org"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"", "  ", "c@z.net"},
			expected: []string{"c@z.net"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeAll(tt.input))
		})
	}
}

func TestDeriveNameFromEmail(t *testing.T) {
	assert.Equal(t, "Jane", DeriveNameFromEmail("jane.doe@example.com"))
	assert.Equal(t, "Bob", DeriveNameFromEmail("bob@example.com"))
	assert.Equal(t, "Team", DeriveNameFromEmail("@example.com"))
}
