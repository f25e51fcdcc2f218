package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

//go:embed sql/*.sql
var embeddedFS embed.FS

var filenameRegex = regexp.MustCompile(`^(\d{3})_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)

// source exposes the embedded migration files as a filesystem rooted
// at the "sql" directory, the shape golang-migrate's iofs driver
// expects, plus the filename validation that catches a malformed or
// unpaired migration file before it ever reaches the database.
type source struct {
	fs fs.FS
}

func newSource() (*source, error) {
	sub, err := fs.Sub(embeddedFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to root embedded migrations at sql/: %w", err)
	}
	s := &source{fs: sub}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *source) files() ([]string, error) {
	entries, err := fs.ReadDir(s.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ".sql" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// validate checks that every embedded file matches the naming
// convention and that every "up" has a matching "down".
func (s *source) validate() error {
	names, err := s.files()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no embedded migration files found")
	}

	pairs := make(map[string]map[string]bool)
	for _, name := range names {
		m := filenameRegex.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename: %s (expected NNN_name.up.sql or NNN_name.down.sql)", name)
		}
		if _, err := strconv.Atoi(m[1]); err != nil {
			return fmt.Errorf("invalid sequence number in %s: %w", name, err)
		}
		key := m[1] + "_" + m[2]
		if pairs[key] == nil {
			pairs[key] = make(map[string]bool)
		}
		pairs[key][m[3]] = true
	}
	for key, directions := range pairs {
		if !directions["up"] {
			return fmt.Errorf("migration %s is missing its up file", key)
		}
		if !directions["down"] {
			return fmt.Errorf("migration %s is missing its down file", key)
		}
	}
	return nil
}
