package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare ten digits", "9876543210", "9876543210"},
		{"plus country code", "+919876543210", "9876543210"},
		{"country code no plus", "919876543210", "9876543210"},
		{"leading zero", "09876543210", "9876543210"},
		{"spaces and dashes", "+91 98765-43210", "9876543210"},
		{"parentheses", "(+91) 9876543210", "9876543210"},
		{"short number keeps leading zero rule off", "043210", "043210"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestIsValidContactNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"valid starting with 9", "9876543210", true},
		{"valid starting with 6", "6000000000", true},
		{"starts with 5", "5876543210", false},
		{"too short", "987654321", false},
		{"too long", "98765432101", false},
		{"contains letters", "98765abcde", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidContactNumber(tt.input))
		})
	}
}
