package tokenizer

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"
)

//go:embed grammars/*.yaml
var builtinFS embed.FS

var (
	builtinOnce  sync.Once
	builtinFiles map[string]*GrammarFile
	builtinErr   error
)

// loadBuiltins parses the embedded grammar files once.
func loadBuiltins() (map[string]*GrammarFile, error) {
	builtinOnce.Do(func() {
		builtinFiles = make(map[string]*GrammarFile)
		entries, err := fs.ReadDir(builtinFS, "grammars")
		if err != nil {
			builtinErr = err
			return
		}
		for _, e := range entries {
			name := path.Join("grammars", e.Name())
			data, err := builtinFS.ReadFile(name)
			if err != nil {
				builtinErr = err
				return
			}
			gf, err := ParseGrammarFile(data)
			if err != nil {
				builtinErr = fmt.Errorf("built-in grammar %s: %w", name, err)
				return
			}
			if want := strings.TrimSuffix(e.Name(), ".yaml"); gf.Name != want {
				builtinErr = fmt.Errorf("built-in grammar %s is named %q", name, gf.Name)
				return
			}
			builtinFiles[gf.Name] = gf
		}
	})
	return builtinFiles, builtinErr
}

// RegisterBuiltins registers every built-in grammar with r. Grammars are
// compiled lazily, so a broken one only fails when it is resolved.
func RegisterBuiltins(r *Registry) error {
	files, err := loadBuiltins()
	if err != nil {
		return err
	}
	for _, name := range BuiltinLanguages() {
		RegisterGrammarFile(r, files[name])
	}
	return nil
}

// BuiltinGrammarFile returns the built-in grammar file for a language name
// or alias.
func BuiltinGrammarFile(name string) (*GrammarFile, bool) {
	files, err := loadBuiltins()
	if err != nil {
		return nil, false
	}
	if gf, ok := files[name]; ok {
		return gf, true
	}
	for _, gf := range files {
		if slices.Contains(gf.Aliases, name) {
			return gf, true
		}
	}
	return nil, false
}

// BuiltinLanguages returns the canonical names of the built-in grammars,
// sorted.
func BuiltinLanguages() []string {
	files, _ := loadBuiltins()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewDefaultRegistry returns a registry holding the built-in grammars.
func NewDefaultRegistry(opts ...RegistryOption) (*Registry, error) {
	r := NewRegistry(opts...)
	if err := RegisterBuiltins(r); err != nil {
		return nil, err
	}
	return r, nil
}
