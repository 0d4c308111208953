package fsutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LogExtension is the file extension of recorded logs.
const LogExtension = ".drlog"

// ErrOutsideLogDir is returned by Resolve for names that escape the directory.
var ErrOutsideLogDir = errors.New("path escapes the log directory")

// LogDir is the directory recordings are written to and listed from.
type LogDir struct {
	fs  FileSystem
	dir string
}

// NewLogDir returns a LogDir rooted at dir on fsys.
func NewLogDir(fsys FileSystem, dir string) *LogDir {
	return &LogDir{fs: fsys, dir: filepath.Clean(dir)}
}

// Dir returns the directory path.
func (d *LogDir) Dir() string { return d.dir }

// Ensure creates the directory if it is missing.
func (d *LogDir) Ensure() error {
	if err := d.fs.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create log dir %s: %w", d.dir, err)
	}
	return nil
}

// NextPath returns an unused path for a recording started at now. The name
// is the sanitised prefix followed by the UTC start time; a numeric suffix
// is appended when that name is taken.
func (d *LogDir) NextPath(prefix string, now time.Time) string {
	base := SanitizeFilename(prefix) + "-" + now.UTC().Format("20060102-150405")
	path := filepath.Join(d.dir, base+LogExtension)
	for i := 1; d.fs.Exists(path); i++ {
		path = filepath.Join(d.dir, base+"-"+strconv.Itoa(i)+LogExtension)
	}
	return path
}

// List returns the paths of every log in the directory, sorted by name.
// A missing directory has no logs.
func (d *LogDir) List() ([]string, error) {
	if !d.fs.Exists(d.dir) {
		return nil, nil
	}
	entries, err := d.fs.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), LogExtension) {
			out = append(out, filepath.Join(d.dir, e.Name()))
		}
	}
	return out, nil
}

// Resolve turns a log name given on the command line into a path inside the
// directory. Bare names get the log extension; absolute paths are returned
// as they are. Relative names may not climb out of the directory.
func (d *LogDir) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty log name")
	}
	if filepath.Ext(name) == "" {
		name += LogExtension
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}
	path := filepath.Join(d.dir, name)
	rel, err := filepath.Rel(d.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideLogDir, name)
	}
	return path, nil
}

// Prune removes the oldest logs, by name, so that at most keep remain. It
// returns the removed paths.
func (d *LogDir) Prune(keep int) ([]string, error) {
	logs, err := d.List()
	if err != nil || len(logs) <= keep {
		return nil, err
	}
	var removed []string
	for _, p := range logs[:len(logs)-keep] {
		if err := d.fs.Remove(p); err != nil {
			return removed, fmt.Errorf("prune %s: %w", p, err)
		}
		removed = append(removed, p)
	}
	return removed, nil
}

// SanitizeFilename makes a safe file name stem from an arbitrary string.
// Anything other than ASCII letters, digits, dot, underscore or dash becomes
// a single underscore, and the result is capped at 64 bytes.
func SanitizeFilename(s string) string {
	const maxLen = 64
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "drive"
	}
	return out
}
