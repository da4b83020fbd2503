// Package security keeps generated report files inside the directory the
// user asked for.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideDir is returned when a path resolves outside its directory.
var ErrOutsideDir = errors.New("path escapes output directory")

const maxFilenameLen = 128

// canonical resolves symlinks in path. When path does not exist yet, the
// deepest existing ancestor is resolved and the remainder re-attached, so
// a link in a parent directory cannot redirect a new file.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, err := filepath.Rel(dir, abs)
			if err != nil {
				return "", err
			}
			return filepath.Join(resolved, rel), nil
		}
		if dir == filepath.Dir(dir) {
			return abs, nil
		}
	}
}

// CheckWithin reports whether path, after resolving symlinks, stays inside
// dir. dir must exist.
func CheckWithin(path, dir string) error {
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if root, err = filepath.Abs(root); err != nil {
		return err
	}
	target, err := canonical(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrOutsideDir, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is not under %s", ErrOutsideDir, path, dir)
	}
	return nil
}

// OutputPath creates dir if needed and returns the path of a file called
// name inside it. name is sanitized first; ext is appended when the
// sanitized name lacks it.
func OutputPath(dir, name, ext string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	file := SanitizeFilename(name)
	if ext != "" && !strings.HasSuffix(file, ext) {
		file += ext
	}
	path := filepath.Join(dir, file)
	if err := CheckWithin(path, dir); err != nil {
		return "", err
	}
	return path, nil
}

// SanitizeFilename maps s onto ASCII letters, digits, '.', '_' and '-',
// collapsing every other run of characters into one underscore.
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
