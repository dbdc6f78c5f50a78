package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config search at an empty home and working directory.
func isolate(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestDefaults(t *testing.T) {
	isolate(t)
	require.NoError(t, Init())

	assert.Equal(t, "ansi", GetFormat())
	assert.Equal(t, "", GetTheme())
	assert.Equal(t, 32, GetMaxDepth())
	assert.Empty(t, GetGrammars())
	assert.False(t, GetVerbose())
}

func TestConfigFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "highlighter")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "format: html\ntheme: monokai\nmax_depth: 8\ngrammars:\n  - ~/grammars/toml.yaml\nverbose: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "highlighter.yaml"), []byte(content), 0o644))

	require.NoError(t, Init())

	assert.Equal(t, "html", GetFormat())
	assert.Equal(t, "monokai", GetTheme())
	assert.Equal(t, 8, GetMaxDepth())
	assert.Equal(t, []string{filepath.Join(home, "grammars", "toml.yaml")}, GetGrammars())
	assert.True(t, GetVerbose())
}

func TestEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("HIGHLIGHTER_FORMAT", "json")
	t.Setenv("HIGHLIGHTER_MAX_DEPTH", "4")

	require.NoError(t, Init())
	assert.Equal(t, "json", GetFormat())
	assert.Equal(t, 4, GetMaxDepth())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		contains string
	}{
		{"Unknown format", map[string]string{"HIGHLIGHTER_FORMAT": "pdf"}, `unknown format "pdf"`},
		{"Zero depth", map[string]string{"HIGHLIGHTER_MAX_DEPTH": "0"}, "max_depth must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			err := Init()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestRuntimeOverrides(t *testing.T) {
	isolate(t)
	require.NoError(t, Init())

	SetFormat("html")
	SetTheme("github")
	SetVerbose(true)
	AddGrammars("a.yaml")
	AddGrammars("b.yaml")

	assert.Equal(t, "html", GetFormat())
	assert.Equal(t, "github", GetTheme())
	assert.True(t, GetVerbose())
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, GetGrammars())
}
