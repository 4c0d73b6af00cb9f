package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lemonberrylabs/lumin/pkg/transpiler"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const (
	promptFirst    = "lumin> "
	promptContinue = "...... "
	historyFile    = ".lumin_history"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactively transpile Lumin snippets",
		Long: `Read Lumin source line by line. A blank line transpiles the buffered
lines and prints the TypeScript. Type :quit or press Ctrl-D to exit.`,
		RunE: runRepl,
	}
}

func runRepl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess := &session{tr: transpiler.New(cfg.TranspilerOptions())}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Lumin REPL. Blank line transpiles, :quit exits.")
	for {
		prompt := promptFirst
		if sess.pending() {
			prompt = promptContinue
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}

		result, done := sess.feed(input)
		if result != "" {
			fmt.Fprint(out, result)
		}
		if done {
			break
		}
	}

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}

// session accumulates REPL input until a blank line.
type session struct {
	tr  *transpiler.Transpiler
	buf strings.Builder
}

func (s *session) pending() bool {
	return s.buf.Len() > 0
}

// feed consumes one input line. It returns text to print and whether the
// session should end.
func (s *session) feed(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == ":quit" || trimmed == ":q" {
		return "", true
	}
	if trimmed != "" {
		s.buf.WriteString(input)
		s.buf.WriteByte('\n')
		return "", false
	}
	if !s.pending() {
		return "", false
	}

	src := s.buf.String()
	s.buf.Reset()
	out, err := s.tr.Transpile(src)
	if err != nil {
		return fmt.Sprintf("error: %v\n", err), false
	}
	if out == "" {
		return "", false
	}
	return out + "\n", false
}
