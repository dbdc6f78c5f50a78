package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spicery/highlighter/internal/config"
	"github.com/spicery/highlighter/internal/console"
	"github.com/spicery/highlighter/pkg/markdown"
	"github.com/spicery/highlighter/pkg/render"
	"github.com/spicery/highlighter/pkg/tokenizer"
	"github.com/spf13/cobra"
)

// app holds what every command needs, built once flags and config are read.
type app struct {
	log         *slog.Logger
	registry    *tokenizer.Registry
	theme       *render.Theme
	highlighter *render.Highlighter
}

var current *app

func setup(cmd *cobra.Command, _ []string) error {
	applyFlags(cmd)
	if err := config.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if config.GetVerbose() {
		level = slog.LevelDebug
	}
	log := slog.New(console.NewHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	a, err := newApp(log, config.GetGrammars(), config.GetTheme(), config.GetMaxDepth())
	if err != nil {
		return err
	}
	current = a
	return nil
}

// applyFlags overrides configured values with the flags given on the
// command line.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		f, _ := flags.GetString("format")
		config.SetFormat(f)
	}
	if flags.Changed("theme") {
		theme, _ := flags.GetString("theme")
		config.SetTheme(theme)
	}
	if v, _ := flags.GetBool("verbose"); v {
		config.SetVerbose(true)
	}
	if grammars, _ := flags.GetStringArray("grammar"); len(grammars) > 0 {
		config.AddGrammars(grammars...)
	}
}

func newApp(log *slog.Logger, grammars []string, themeName string, maxDepth int) (*app, error) {
	r, err := tokenizer.NewDefaultRegistry(tokenizer.WithLogger(log))
	if err != nil {
		return nil, err
	}
	for _, path := range grammars {
		gf, err := tokenizer.LoadGrammarFile(path)
		if err != nil {
			return nil, err
		}
		tokenizer.RegisterGrammarFile(r, gf)
		log.Debug("loaded grammar", "language", gf.Name, "file", path)
	}

	theme := render.DefaultTheme()
	if themeName != "" {
		if theme, err = render.ThemeFromChroma(themeName); err != nil {
			return nil, fmt.Errorf("%w (run with a name from: %s)", err, strings.Join(render.Themes(), ", "))
		}
	}

	return &app{
		log:      log,
		registry: r,
		theme:    theme,
		highlighter: render.New(r,
			render.WithTheme(theme),
			render.WithMaxDepth(maxDepth),
			render.WithLogger(log),
		),
	}, nil
}

func runHighlight(cmd *cobra.Command, _ []string) error {
	inputFile, _ := cmd.Flags().GetString("input")
	outputFile, _ := cmd.Flags().GetString("output")
	lang, _ := cmd.Flags().GetString("language")
	strict, _ := cmd.Flags().GetBool("strict")

	if lang == "" {
		lang = strings.TrimPrefix(filepath.Ext(inputFile), ".")
	}
	if lang == "" {
		return errors.New("no language given: use --language or an --input file with an extension")
	}

	input, err := readInput(inputFile)
	if err != nil {
		return err
	}

	return withOutput(outputFile, func(w io.Writer) error {
		return current.highlight(w, input, lang, config.GetFormat(), strict)
	})
}

// highlight writes input in the requested format. When lang is unavailable
// the input is written unhighlighted, unless strict is set.
func (a *app) highlight(w io.Writer, input, lang, format string, strict bool) error {
	nodes, ok := a.highlighter.Tokenize(input, lang)
	if !ok {
		if strict {
			return fmt.Errorf("language %q is unavailable", lang)
		}
		a.log.Warn("no grammar for language, writing plain text", "language", lang)
		if input != "" {
			nodes = []tokenizer.Node{tokenizer.NewText(input)}
		}
	}

	switch format {
	case "html":
		_, err := io.WriteString(w, render.HTML(nodes, lang))
		return err
	case "json":
		// One JSON node per line
		for _, n := range nodes {
			jsonBytes, err := json.Marshal(n)
			if err != nil {
				return fmt.Errorf("JSON encoding error: %w", err)
			}
			if _, err := fmt.Fprintln(w, string(jsonBytes)); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := io.WriteString(w, render.ANSI(nodes, a.theme, a.highlighter.Profile()))
		return err
	}
}

func runLanguages(cmd *cobra.Command, _ []string) error {
	return current.listLanguages(cmd.OutOrStdout())
}

func (a *app) listLanguages(w io.Writer) error {
	bold := lipgloss.NewRenderer(w).NewStyle().Bold(true)
	for _, name := range a.registry.Languages() {
		line := bold.Render(name)
		if aliases := a.registry.Aliases(name); len(aliases) > 0 {
			line += " (" + strings.Join(aliases, ", ") + ")"
		}
		if _, ok := a.registry.Resolve(name); !ok {
			line += " unavailable: " + a.registry.Err(name).Error()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func runMakeGrammar(cmd *cobra.Command, args []string) error {
	gf, ok := tokenizer.BuiltinGrammarFile(args[0])
	if !ok {
		return fmt.Errorf("no built-in grammar %q", args[0])
	}
	yamlBytes, err := gf.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal grammar to YAML: %w", err)
	}
	outputFile, _ := cmd.Flags().GetString("output")
	return withOutput(outputFile, func(w io.Writer) error {
		_, err := w.Write(yamlBytes)
		return err
	})
}

func runCSS(cmd *cobra.Command, _ []string) error {
	outputFile, _ := cmd.Flags().GetString("output")
	return withOutput(outputFile, current.theme.CSS)
}

func runMarkdown(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("out-dir")
	outputFile, _ := cmd.Flags().GetString("output")

	srcs := make([][]byte, len(args))
	for i, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("error reading file '%s': %w", path, err)
		}
		srcs[i] = data
	}

	c := markdown.NewConverter(current.highlighter, markdown.WithLogger(current.log))
	results := c.ConvertAll(srcs)

	if outDir == "" {
		return withOutput(outputFile, func(w io.Writer) error {
			return writeDocuments(w, args, results)
		})
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	var errs []error
	for i, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", args[i], res.Err))
			continue
		}
		name := strings.TrimSuffix(filepath.Base(args[i]), filepath.Ext(args[i])) + ".html"
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, []byte(page(res.Document)), 0o644); err != nil {
			errs = append(errs, err)
			continue
		}
		current.log.Info("wrote", "file", path)
	}
	return errors.Join(errs...)
}

func writeDocuments(w io.Writer, names []string, results []markdown.Result) error {
	var errs []error
	for i, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", names[i], res.Err))
			continue
		}
		if _, err := io.WriteString(w, res.Document.HTML); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

// page wraps a converted document in a minimal HTML page.
func page(doc *markdown.Document) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n")
	if title := doc.Title(); title != "" {
		fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(title))
	}
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(doc.HTML)
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// readInput reads a file, or stdin when filename is empty.
func readInput(filename string) (string, error) {
	var data []byte
	var err error
	if filename == "" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("error reading from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filename)
		if err != nil {
			return "", fmt.Errorf("error reading file '%s': %w", filename, err)
		}
	}
	return string(data), nil
}

// withOutput runs write against a file, or stdout when filename is empty.
func withOutput(filename string, write func(io.Writer) error) error {
	if filename == "" {
		return write(os.Stdout)
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating output file '%s': %w", filename, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("error closing output file '%s': %w", filename, err)
	}
	return nil
}
