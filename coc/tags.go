package coc

import (
	"fmt"
	"regexp"
	"strings"
)

// Clash of Clans tags only ever contain these characters.
var tagPattern = regexp.MustCompile(`^[0289PYLQGRJCUV]+$`)

// NormalizeTag canonicalizes a clan or player tag: spaces stripped, uppercased,
// always prefixed with '#'. Every cache key and stored binding goes through
// this, so inconsistent user input cannot split cache entries.
func NormalizeTag(tag string) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(tag, " ", "")))
	if !strings.HasPrefix(cleaned, "#") {
		cleaned = "#" + cleaned
	}
	raw := strings.TrimPrefix(cleaned, "#")
	if raw == "" || !tagPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	return cleaned, nil
}

// EncodeTag returns the normalized tag in URL path form ('#' -> '%23').
func EncodeTag(tag string) (string, error) {
	normalized, err := NormalizeTag(tag)
	if err != nil {
		return "", err
	}
	return strings.Replace(normalized, "#", "%23", 1), nil
}
