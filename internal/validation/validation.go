package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyInput is returned when the city name is empty or whitespace-only after trim.
// Callers check it before any upstream call is attempted.
var ErrEmptyInput = errors.New("city name is required")

// ErrCityTooShort is returned when the city name is below the minimum length.
var ErrCityTooShort = errors.New("city name too short")

// ErrCityTooLong is returned when the city name exceeds the maximum length.
var ErrCityTooLong = errors.New("city name too long")

// ErrCityInvalidChars is returned when the city name contains disallowed characters.
var ErrCityInvalidChars = errors.New("city name contains invalid characters")

// ErrInvalidView is returned when a CSV export names an unknown view.
var ErrInvalidView = errors.New("invalid export view")

// IsInvalidInput reports whether err is a rejected, non-blank input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrCityTooShort) || errors.Is(err, ErrCityTooLong) ||
		errors.Is(err, ErrCityInvalidChars) || errors.Is(err, ErrInvalidView)
}

// ValidateCity trims the input, enforces length bounds (minLen, maxLen in runes; 0 disables a bound)
// and restricts to letters (Unicode), digits, space, comma, hyphen, period and apostrophe.
// Returns the trimmed name with its original casing.
func ValidateCity(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrEmptyInput
	}
	if minLen > 0 && n < minLen {
		return "", ErrCityTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrCityTooLong
	}
	for _, c := range r {
		if !isAllowedCityRune(c) {
			return "", ErrCityInvalidChars
		}
	}
	return s, nil
}

// IsEmpty reports whether the input is blank.
func IsEmpty(input string) bool {
	return strings.TrimSpace(input) == ""
}

func isAllowedCityRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'':
		return true
	}
	return false
}
