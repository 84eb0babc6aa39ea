package verification

import (
	"math/rand"
	"regexp"
	"strings"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomCode returns an uppercase alphanumeric challenge. It only has to
// resist copy-paste automation, not guessing.
func RandomCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// TrimUsername strips surrounding space and a leading "@".
func TrimUsername(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}

// NormalizeUsername trims the input and checks Roblox username rules.
func NormalizeUsername(s string) (string, error) {
	s = TrimUsername(s)
	if !usernamePattern.MatchString(s) {
		return "", ErrInvalidUsername
	}
	return s, nil
}
