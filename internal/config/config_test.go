package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")

	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Extraction, cfg.Extraction)
	assert.Equal(t, def.Output, cfg.Output)
	assert.Equal(t, def.Network, cfg.Network)
	assert.Equal(t, def.Parallel, cfg.Parallel)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
[extraction]
min_comment_length = 10
comment_mode = "flat"
body_strategy = "best"

[output]
default_format = "markdown"
clipboard = true

[parallel]
max_concurrency = 2

[browser.cookies]
domains = ["intranet.example.com"]
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Extraction.MinCommentLength)
	assert.Equal(t, "flat", cfg.Extraction.CommentMode)
	assert.Equal(t, "best", cfg.Extraction.BodyStrategy)
	assert.Equal(t, 100, cfg.Extraction.MinContentLength)
	assert.Equal(t, "markdown", cfg.Output.DefaultFormat)
	assert.True(t, cfg.Output.Clipboard)
	assert.Equal(t, 2, cfg.Parallel.MaxConcurrency)
	assert.Equal(t, []string{"intranet.example.com"}, cfg.Browser.Cookies.Domains)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "[extraction]\ncomment_mode = \"flat\"\n")
	t.Setenv("ARTSCRPR_EXTRACTION_COMMENT_MODE", "hierarchical")
	t.Setenv("ARTSCRPR_PARALLEL_MAX_CONCURRENCY", "9")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "hierarchical", cfg.Extraction.CommentMode)
	assert.Equal(t, 9, cfg.Parallel.MaxConcurrency)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"comment_mode", "[extraction]\ncomment_mode = \"threaded\"\n", "extraction.comment_mode"},
		{"format", "[output]\ndefault_format = \"pdf\"\n", "output.default_format"},
		{"concurrency", "[parallel]\nmax_concurrency = 0\n", "parallel.max_concurrency"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.ErrorContains(t, err, tc.errMsg)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "[extraction\n"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestCreateExampleConfig_LoadsAsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, CreateExampleConfig(path))

	cfg, err := Load(path)

	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Extraction, cfg.Extraction)
	assert.Equal(t, def.Output, cfg.Output)
	assert.Equal(t, def.Network, cfg.Network)
	assert.Equal(t, def.Parallel, cfg.Parallel)
	assert.Equal(t, def.Logging, cfg.Logging)
	assert.Equal(t, def.Browser.Default, cfg.Browser.Default)
}

func TestDefaultPath_HonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultPath()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "artscrpr", "config.toml"), path)
}
