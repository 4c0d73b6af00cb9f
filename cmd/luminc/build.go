package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lemonberrylabs/lumin/pkg/api"
	"github.com/lemonberrylabs/lumin/pkg/transpiler"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [files...]",
		Short: "Transpile .lum files to .ts",
		Long: `Transpile Lumin sources to TypeScript.

With no arguments, every .lum file in the configured sources directory is
built. A single "-" reads source from stdin and writes TypeScript to stdout.`,
		RunE: runBuild,
	}
	cmd.Flags().String("out", "", "Output directory (default next to each source, or config 'out')")
	cmd.Flags().Int("indent", 0, "Spaces per indentation level (default from config)")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := cfg.TranspilerOptions()
	if v, _ := cmd.Flags().GetInt("indent"); v > 0 {
		opts.Indent = v
	}
	tr := transpiler.New(opts)

	if len(args) == 1 && args[0] == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		out, err := tr.Transpile(string(src))
		if err != nil {
			return diagnostic("<stdin>", err)
		}
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	}

	outDir := cfg.OutDir()
	if v, _ := cmd.Flags().GetString("out"); v != "" {
		outDir = v
	}

	files := args
	if len(files) == 0 {
		files, err = sourceFiles(cfg.SourcesDir())
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no %s files in %s", api.SourceExt, cfg.SourcesDir())
		}
	}

	failed := 0
	for _, path := range files {
		target, err := buildFile(tr, path, outDir)
		if err != nil {
			failed++
			cmd.PrintErrln(err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", path, target)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(files))
	}
	return nil
}

// buildFile transpiles one source and writes the result, returning the
// output path.
func buildFile(tr *transpiler.Transpiler, path, outDir string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	out, err := tr.Transpile(string(src))
	if err != nil {
		return "", diagnostic(path, err)
	}

	target := strings.TrimSuffix(path, filepath.Ext(path)) + ".ts"
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
		target = filepath.Join(outDir, filepath.Base(target))
	}
	if err := os.WriteFile(target, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	return target, nil
}

func sourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading sources directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == api.SourceExt {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// diagnostic prefixes a transpile error with the file it came from. The
// error text already carries the position.
func diagnostic(path string, err error) error {
	return fmt.Errorf("%s: %w", path, err)
}

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the token stream of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var src []byte
			if args[0] == "-" {
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}

			tokens, err := transpiler.New(cfg.TranspilerOptions()).Tokenize(string(src))
			if err != nil {
				return diagnostic(args[0], err)
			}
			for _, tok := range tokens {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %q\n", tok.Pos, tok.Kind, tok.Lexeme)
			}
			return nil
		},
	}
}
