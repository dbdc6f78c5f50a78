package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/viper"
)

// Formats are the output formats the highlighter can produce.
var Formats = []string{"ansi", "html", "json"}

// Init initializes configuration with viper
func Init() error {
	viper.SetDefault("format", "ansi")
	viper.SetDefault("theme", "") // Built-in terminal palette
	viper.SetDefault("max_depth", 32)
	viper.SetDefault("grammars", []string{})
	viper.SetDefault("verbose", false)

	viper.SetConfigName("highlighter")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "highlighter"))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("HIGHLIGHTER")
	viper.AutomaticEnv()

	// Try to read config, but don't fail if not found or malformed
	_ = viper.ReadInConfig()

	return Validate()
}

// Validate checks values that have a fixed set of choices
func Validate() error {
	if f := GetFormat(); !slices.Contains(Formats, f) {
		return fmt.Errorf("unknown format %q (supported: ansi, html, json)", f)
	}
	if GetMaxDepth() < 1 {
		return fmt.Errorf("max_depth must be positive, got %d", GetMaxDepth())
	}
	return nil
}

// GetFormat returns the output format
func GetFormat() string {
	return viper.GetString("format")
}

// GetTheme returns the chroma style name, empty for the built-in palette
func GetTheme() string {
	return viper.GetString("theme")
}

// GetMaxDepth returns the nesting limit for embedded grammars
func GetMaxDepth() int {
	return viper.GetInt("max_depth")
}

// GetGrammars returns extra grammar files to load, with tilde expansion
func GetGrammars() []string {
	var paths []string
	for _, p := range viper.GetStringSlice("grammars") {
		paths = append(paths, expandTilde(p))
	}
	return paths
}

// GetVerbose returns whether debug logging is enabled
func GetVerbose() bool {
	return viper.GetBool("verbose")
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// SetFormat sets the output format at runtime
func SetFormat(format string) {
	viper.Set("format", format)
}

// SetTheme sets the theme at runtime
func SetTheme(theme string) {
	viper.Set("theme", theme)
}

// AddGrammars appends grammar files given on the command line
func AddGrammars(paths ...string) {
	viper.Set("grammars", append(viper.GetStringSlice("grammars"), paths...))
}

// SetVerbose enables or disables debug logging at runtime
func SetVerbose(v bool) {
	viper.Set("verbose", v)
}
