package check

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/pngtone/internal/config"
)

// recordingLogger captures messages by level.
type recordingLogger struct {
	lines map[string][]string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{lines: map[string][]string{}}
}

func (r *recordingLogger) add(level, format string, args ...interface{}) {
	r.lines[level] = append(r.lines[level], fmt.Sprintf(format, args...))
}

func (r *recordingLogger) Info(f string, a ...interface{})    { r.add("info", f, a...) }
func (r *recordingLogger) Success(f string, a ...interface{}) { r.add("success", f, a...) }
func (r *recordingLogger) Warn(f string, a ...interface{})    { r.add("warn", f, a...) }
func (r *recordingLogger) Error(f string, a ...interface{})   { r.add("error", f, a...) }
func (r *recordingLogger) Debug(v bool, f string, a ...interface{}) {
	if v {
		r.add("debug", f, a...)
	}
}

func TestRunCheck_AllStepsPass(t *testing.T) {
	cfg := config.DefaultConfig()
	log := newRecordingLogger()

	ok := RunCheck(&cfg, log)
	assert.True(t, ok, "errors: %v", log.lines["error"])
	assert.Empty(t, log.lines["error"])
	assert.Len(t, log.lines["success"], 3)
	assert.True(t, strings.HasPrefix(log.lines["info"][0], "=== System Check"))
}

func TestPreflight(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "in.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("PK"), 0o644))
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	base := func() config.Config {
		cfg := config.DefaultConfig()
		cfg.ArchivePath = zipPath
		cfg.UnzipDir = filepath.Join(root, "work", "unzipped")
		cfg.OutputDir = filepath.Join(root, "out")
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"all good", func(*config.Config) {}, nil},
		{"missing archive", func(c *config.Config) { c.ArchivePath = filepath.Join(root, "none.zip") }, ErrArchiveNotFound},
		{"archive is a directory", func(c *config.Config) { c.ArchivePath = root }, ErrArchiveNotFile},
		{"unzip dir under a file", func(c *config.Config) { c.UnzipDir = filepath.Join(blocker, "u") }, ErrUnzipDirUnusable},
		{"output dir under a file", func(c *config.Config) { c.OutputDir = filepath.Join(blocker, "o") }, ErrOutputDirUnusable},
		{"dry run skips output dir", func(c *config.Config) {
			c.DryRun = true
			c.OutputDir = filepath.Join(blocker, "o")
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := Preflight(&cfg)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPreflight_LeavesNoProbeFiles(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "in.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("PK"), 0o644))

	cfg := config.DefaultConfig()
	cfg.ArchivePath = zipPath
	cfg.UnzipDir = filepath.Join(root, "unzipped")
	cfg.OutputDir = filepath.Join(root, "out")
	require.NoError(t, Preflight(&cfg))

	for _, d := range []string{cfg.UnzipDir, cfg.OutputDir} {
		entries, err := os.ReadDir(d)
		require.NoError(t, err)
		assert.Empty(t, entries, d)
	}
}
