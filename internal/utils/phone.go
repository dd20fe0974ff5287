package utils

import "strings"

// NormalizePhone reduces a phone number to its bare 10-digit form: spaces,
// dashes and parentheses are stripped, then a leading +91, 91 or 0 prefix is
// removed when the remainder is 10 digits.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+', r == ' ', r == '-', r == '(', r == ')':
			// separators and the plus sign are dropped
		default:
			// any other character makes the number invalid downstream
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	} else if len(digits) == 11 && strings.HasPrefix(digits, "0") {
		digits = digits[1:]
	}
	return digits
}

// IsValidContactNumber reports whether the normalized number is a 10-digit
// mobile number starting with 6-9.
func IsValidContactNumber(normalized string) bool {
	if len(normalized) != 10 {
		return false
	}
	if normalized[0] < '6' || normalized[0] > '9' {
		return false
	}
	for i := 0; i < len(normalized); i++ {
		if normalized[i] < '0' || normalized[i] > '9' {
			return false
		}
	}
	return true
}
