package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL trims and validates an operator-supplied website, returning
// the trimmed value or an error if it is empty or not a usable URL. Bare
// domains ("acme.example") are accepted the same way the discovery service
// reports them.
func ValidateURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("URL is required")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return "", fmt.Errorf("invalid URL: contains whitespace")
	}

	candidate := s
	if !strings.Contains(s, "://") {
		candidate = "https://" + s
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid URL: unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid URL: missing host")
	}
	return s, nil
}
