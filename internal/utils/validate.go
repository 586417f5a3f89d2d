package utils

import (
	"regexp"
	"strings"
)

var (
	digitsRegex = regexp.MustCompile(`^[0-9]+$`)
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	nonDigit    = regexp.MustCompile(`[^0-9]`)
)

// IsDigits reports whether s is non-empty and contains only digits.
func IsDigits(s string) bool {
	return digitsRegex.MatchString(s)
}

// IsEmail checks the shape of an email address. It does not verify
// deliverability.
func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsPhoneBR reports whether phone normalizes to a plausible Brazilian
// number: country code plus area code plus an 8 or 9 digit subscriber part.
func IsPhoneBR(phone string) bool {
	n := NormalizePhoneBR(phone)
	return IsDigits(n) && len(n) >= 12 && len(n) <= 13
}

// NormalizePhoneBR strips formatting from a Brazilian phone number and
// prefixes the country code, so "(67) 98483-7419" becomes "5567984837419".
func NormalizePhoneBR(phone string) string {
	digits := nonDigit.ReplaceAllString(phone, "")
	digits = strings.TrimPrefix(digits, "0")

	if strings.HasPrefix(digits, "55") && len(digits) >= 12 {
		return digits
	}
	return "55" + digits
}
