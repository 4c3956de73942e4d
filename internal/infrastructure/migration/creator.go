package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const versionLayout = "20060102150405"

var upTemplate = template.Must(template.New("up").Parse(`-- {{.Name}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

-- Tenant-owned tables carry tenant_id and index it first.

`))

var downTemplate = template.Must(template.New("down").Parse(`-- {{.Name}} (rollback)
-- Created: {{.Timestamp}}

`))

// File is a generated up/down migration pair.
type File struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// Entry is one migration found in a migrations directory.
type Entry struct {
	Version uint64
	Name    string
	HasDown bool
}

// Create writes an empty up/down pair into dir, versioned by now.
func Create(dir, name, description string, now time.Time) (*File, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := now.UTC().Format(versionLayout)
	base := version + "_" + slug
	f := &File{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   now.UTC().Format(time.RFC3339),
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	if err := writeTemplate(f.UpPath, upTemplate, f); err != nil {
		return nil, err
	}
	if err := writeTemplate(f.DownPath, downTemplate, f); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}

func writeTemplate(path string, tmpl *template.Template, data *File) error {
	// Never overwrite an existing migration.
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	if err := tmpl.Execute(out, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	return nil
}

// sanitizeName lowercases name and collapses separators to single underscores.
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// List returns the migrations in fsys ordered by version.
// Files not named <version>_<name>.{up,down}.sql are ignored.
func List(fsys fs.FS) ([]Entry, error) {
	dirEntries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[uint64]*Entry)
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		version, name, direction, ok := parseFileName(de.Name())
		if !ok {
			continue
		}
		e, seen := byVersion[version]
		if !seen {
			e = &Entry{Version: version, Name: name}
			byVersion[version] = e
		}
		if direction == "down" {
			e.HasDown = true
		}
	}

	entries := make([]Entry, 0, len(byVersion))
	for _, e := range byVersion {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	return entries, nil
}

func parseFileName(file string) (version uint64, name, direction string, ok bool) {
	stem, found := strings.CutSuffix(file, ".sql")
	if !found {
		return 0, "", "", false
	}
	dot := strings.LastIndexByte(stem, '.')
	if dot < 0 {
		return 0, "", "", false
	}
	direction = stem[dot+1:]
	if direction != "up" && direction != "down" {
		return 0, "", "", false
	}
	rawVersion, name, found := strings.Cut(stem[:dot], "_")
	if !found || name == "" {
		return 0, "", "", false
	}
	version, err := strconv.ParseUint(rawVersion, 10, 64)
	if err != nil {
		return 0, "", "", false
	}
	return version, name, direction, true
}
