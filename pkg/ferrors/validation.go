package ferrors

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ValidatePath checks that path is a relative, non-traversing filesystem
// path suitable for a local source descriptor.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path must not be empty")
	}
	if filepath.IsAbs(path) {
		return New(ErrCodeInvalidPath, "path %q must be relative", path)
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path %q must use forward slashes", path)
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return New(ErrCodeInvalidPath, "path %q escapes its parent", path)
	}
	return nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "url must not be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "malformed url %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidURL, "url %q must use http or https", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "url %q missing host", rawURL)
	}
	return nil
}

// ValidateAlias checks that a dependency alias is non-empty and contains no
// whitespace, since aliases are used as bareword tokens in the lockfile.
func ValidateAlias(alias string) error {
	if alias == "" {
		return New(ErrCodeInvalidInput, "alias must not be empty")
	}
	if strings.ContainsAny(alias, " \t\n") {
		return New(ErrCodeInvalidInput, "alias %q must not contain whitespace", alias)
	}
	return nil
}
