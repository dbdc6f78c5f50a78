package main

import (
	"fmt"
	"os"

	"github.com/spicery/highlighter/internal/config"
	"github.com/spf13/cobra"
)

var version = "0.2.0"

var rootCmd = &cobra.Command{
	Use:   "highlighter",
	Short: "Grammar-driven syntax highlighter",
	Long: `Highlights source code using declarative regular-expression grammars.

Reads from --input (or stdin) and writes to --output (or stdout) as
terminal colours, HTML spans, or one JSON node per line.

Examples:
  highlighter -l kotlin --input Main.kt
  highlighter -l html -f html < page.html > page.frag.html
  echo 'ls -la # list' | highlighter -l sh
  highlighter --grammar toml.yaml -l toml --input Cargo.toml`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setup,
	RunE:              runHighlight,
	SilenceUsage:      true,
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List available languages and their aliases",
	Args:  cobra.NoArgs,
	RunE:  runLanguages,
}

var makeGrammarCmd = &cobra.Command{
	Use:   "make-grammar <language>",
	Short: "Print a built-in grammar as YAML",
	Long: `Prints the YAML grammar file of a built-in language. The output can be
edited and loaded back with --grammar to customise highlighting.`,
	Args: cobra.ExactArgs(1),
	RunE: runMakeGrammar,
}

var cssCmd = &cobra.Command{
	Use:   "css",
	Short: "Print a stylesheet for HTML output",
	Args:  cobra.NoArgs,
	RunE:  runCSS,
}

var markdownCmd = &cobra.Command{
	Use:   "markdown <file>...",
	Short: "Convert markdown files to HTML with highlighted code",
	Long: "Converts markdown files to HTML. Fenced code blocks are highlighted by their\n" +
		"language; inline code starting with a shebang such as `#!kotlin val x = 1`\n" +
		"is highlighted with the named language.",
	Args: cobra.MinimumNArgs(1),
	RunE: runMarkdown,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(languagesCmd, makeGrammarCmd, cssCmd, markdownCmd)

	rootCmd.Flags().String("input", "", "Input file (defaults to stdin)")
	rootCmd.Flags().StringP("language", "l", "", "Language of the input (defaults to the input file extension)")
	rootCmd.Flags().Bool("strict", false, "Fail when the language is unavailable instead of writing plain text")
	rootCmd.PersistentFlags().String("output", "", "Output file (defaults to stdout)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Output format: ansi, html, json")
	rootCmd.PersistentFlags().String("theme", "", "Chroma style for colours, e.g. monokai")
	rootCmd.PersistentFlags().StringArray("grammar", nil, "Extra YAML grammar file (repeatable)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log timing and other notes")
	markdownCmd.Flags().String("out-dir", "", "Write <name>.html files here instead of stdout")
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
