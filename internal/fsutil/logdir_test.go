package fsutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 10, 18, 14, 30, 5, 0, time.UTC)

func TestNextPath(t *testing.T) {
	m := NewMemoryFileSystem()
	d := NewLogDir(m, "/rec")
	require.NoError(t, d.Ensure())

	first := d.NextPath("Town 04 / night", start)
	assert.Equal(t, "/rec/Town_04_night-20261018-143005.drlog", first)

	m.WriteFile(first, nil, start)
	assert.Equal(t, "/rec/Town_04_night-20261018-143005-1.drlog", d.NextPath("Town 04 / night", start))

	assert.Equal(t, "/rec/drive-20261018-143005.drlog", d.NextPath("", start))
}

func TestListAndPrune(t *testing.T) {
	m := NewMemoryFileSystem()
	d := NewLogDir(m, "/rec")

	logs, err := d.List()
	require.NoError(t, err)
	assert.Empty(t, logs, "missing directory")

	for i := 0; i < 4; i++ {
		m.WriteFile(d.NextPath("drive", start.Add(time.Duration(i)*time.Minute)), []byte("DRVR"), start)
	}
	m.WriteFile("/rec/notes.txt", nil, start)
	m.WriteFile("/rec/old/ignored.drlog", nil, start)

	logs, err = d.List()
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, "/rec/drive-20261018-143005.drlog", logs[0])

	removed, err := d.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, logs[:2], removed)

	left, err := d.List()
	require.NoError(t, err)
	assert.Equal(t, logs[2:], left)

	removed, err = d.Prune(5)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestResolve(t *testing.T) {
	d := NewLogDir(NewMemoryFileSystem(), "/rec")

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"bare name", "drive", "/rec/drive.drlog", nil},
		{"with extension", "drive.drlog", "/rec/drive.drlog", nil},
		{"subdirectory", "day1/drive", "/rec/day1/drive.drlog", nil},
		{"absolute", "/tmp/x.drlog", "/tmp/x.drlog", nil},
		{"climbs out", "../etc/passwd", "", ErrOutsideLogDir},
		{"climbs out after descending", "a/../../x", "", ErrOutsideLogDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Resolve(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}

	_, err := d.Resolve("")
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"Town04":        "Town04",
		"my drive!!":    "my_drive",
		"../../etc":     "etc",
		"":              "drive",
		"___":           "drive",
		"v1.2-test_run": "v1.2-test_run",
		"ümlaut straße": "mlaut_stra_e",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}
