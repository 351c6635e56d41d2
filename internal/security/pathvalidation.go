// Package security validates filesystem paths supplied from outside the
// process, such as export destinations named in HTTP requests or on the
// command line.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// canonicalize resolves path to an absolute form with symlinks evaluated.
// For paths that do not exist yet (the usual case for export targets) the
// nearest existing ancestor is resolved instead and the remaining components
// are re-joined onto it, so a symlinked parent cannot smuggle the final path
// out of its apparent directory.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	// Walk up to the nearest existing ancestor and canonicalize that.
	ancestor := abs
	for {
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			// Hit the filesystem root without finding anything
			return abs, nil
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, err := filepath.Rel(parent, abs)
			if err != nil {
				return abs, nil
			}
			return filepath.Join(resolved, rel), nil
		}
		ancestor = parent
	}
}

// ValidatePathWithinDirectory reports whether filePath stays inside safeDir
// once both are cleaned, made absolute and stripped of symlinks. Traversal
// through "..", absolute escapes and symlinked parents are all rejected.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	canonical, err := canonicalize(filePath)
	if err != nil {
		return err
	}

	absSafe, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("resolve safe directory: %w", err)
	}
	canonicalSafe, err := filepath.EvalSymlinks(absSafe)
	if err != nil {
		return fmt.Errorf("resolve safe directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalSafe, canonical)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// ValidatePathWithinAllowedDirs accepts filePath if it validates against at
// least one of allowedDirs.
func ValidatePathWithinAllowedDirs(filePath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}
	for _, dir := range allowedDirs {
		if err := ValidatePathWithinDirectory(filePath, dir); err == nil {
			return nil
		}
	}
	return fmt.Errorf("path must be within one of the allowed directories: %v", allowedDirs)
}

// ValidateExportPath validates a destination for file exports. Exports may
// land in the temp directory or the current working directory, nowhere else.
func ValidateExportPath(filePath string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	return ValidatePathWithinAllowedDirs(filePath, []string{os.TempDir(), cwd})
}

// SanitizeFilename makes a safe filename from an arbitrary string. Runs of
// characters outside ASCII letters, digits, dot, underscore and dash collapse
// to a single underscore, and the result is capped at 128 characters.
func SanitizeFilename(s string) string {
	const maxLen = 128

	var b strings.Builder
	squashed := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			squashed = false
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			squashed = false
		default:
			if !squashed {
				b.WriteByte('_')
				squashed = true
			}
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
