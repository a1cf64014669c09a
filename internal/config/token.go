package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// jwtPattern matches a compact JWT anywhere in a file, so the token file can
// hold either the raw token or a small JSON document like {"token": "..."}.
var jwtPattern = regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)

// LoadTokenFile reads a saved bearer token. A missing or unreadable file
// yields "".
func LoadTokenFile(path string) string {
	if path == "" {
		return ""
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return parseToken(string(content))
}

func parseToken(content string) string {
	if match := jwtPattern.FindString(content); match != "" {
		return match
	}
	return ""
}

// SaveTokenFile writes token to path with owner-only permissions. An empty
// token removes the file.
func SaveTokenFile(path, token string) error {
	if path == "" {
		return fmt.Errorf("token path is empty")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove token file: %w", err)
		}
		return nil
	}

	if err := ensureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	// Write to temp file first, then rename
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
