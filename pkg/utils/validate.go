package utils

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidationError carries the offending field alongside the message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateUsername enforces the account naming rules: 3-20 characters,
// letters, numbers and underscores, starting with a letter or number.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if len(username) < MinUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at least 3 characters"}
	}
	if len(username) > MaxUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at most 20 characters"}
	}
	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "username", Message: "Username can only contain letters, numbers, and underscores"}
	}
	if !unicode.IsLetter(rune(username[0])) && !unicode.IsNumber(rune(username[0])) {
		return &ValidationError{Field: "username", Message: "Username must start with a letter or number"}
	}
	return nil
}

// NormalizeUsername lowercases the username for storage and lookups.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateEmail checks the address has a plausible mailbox@domain shape.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return &ValidationError{Field: "email", Message: "Invalid email address"}
	}
	return nil
}

// NormalizePhone strips spaces, dashes and parentheses so the same number
// always stores and matches identically during contact sync.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r == '+' || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhone checks a normalized number: optional +, 7 to 15 digits.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(NormalizePhone(phone)) {
		return &ValidationError{Field: "phone_number", Message: "Invalid phone number"}
	}
	return nil
}
