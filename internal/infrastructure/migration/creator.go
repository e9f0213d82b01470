package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
)

// MigrationFile describes a created up/down migration pair.
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty up/down migration pair into dir. The
// version prefix is the creation timestamp so files sort chronologically.
func CreateMigration(dir, name string) (*MigrationFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	sanitized := sanitizeName(name)
	if sanitized == "" {
		return nil, fmt.Errorf("invalid migration name %q", name)
	}

	version := time.Now().Format("20060102150405")
	mf := &MigrationFile{
		Version:  version,
		Name:     sanitized,
		UpPath:   filepath.Join(dir, fmt.Sprintf("%s_%s.up.sql", version, sanitized)),
		DownPath: filepath.Join(dir, fmt.Sprintf("%s_%s.down.sql", version, sanitized)),
	}

	up := fmt.Sprintf("-- %s\n\n", sanitized)
	down := fmt.Sprintf("-- rollback %s\n\n", sanitized)
	if err := os.WriteFile(mf.UpPath, []byte(up), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write up migration: %w", err)
	}
	if err := os.WriteFile(mf.DownPath, []byte(down), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write down migration: %w", err)
	}

	return mf, nil
}

// ListMigrations returns the up migration file names in dir, sorted by
// version.
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// sanitizeName normalizes a migration name to lower snake_case.
func sanitizeName(name string) string {
	var b strings.Builder
	prevUnderscore := true
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			prevUnderscore = false
		case r == ' ' || r == '-' || r == '_':
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
