package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/tinypy/pkg/diag"
	"github.com/GriffinCanCode/tinypy/pkg/interp"
	"github.com/GriffinCanCode/tinypy/pkg/pipeline"
)

const (
	historyFile = ".tinypy_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

const replHelp = `Enter statements to run them. A line ending in ':' opens a block,
which ends at the first empty line.

Commands:
  :globals  show top-level bindings
  :reset    forget every binding
  :help     show this help
  :quit     leave the session`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Args:  cobra.NoArgs,
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tinypy v%s - type :help for commands\n", Version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := newSession(out, cmd.ErrOrStderr(), cfg.Output.Color)
	for {
		src, err := readInput(ln.Prompt)
		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(out)
			return nil
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case err != nil:
			return err
		}

		if line := strings.TrimSpace(src); line != "" && !strings.Contains(src, "\n") {
			ln.AppendHistory(line)
		}
		if !s.eval(src) {
			return nil
		}
	}
}

// promptFunc reads one line after showing prompt.
type promptFunc func(prompt string) (string, error)

// readInput collects one entry. A line ending in ':' opens a block that
// continues until an empty line or end of input.
func readInput(prompt promptFunc) (string, error) {
	line, err := prompt(promptMain)
	if err != nil {
		return "", err
	}
	if !opensBlock(line) {
		return line, nil
	}

	var b strings.Builder
	b.WriteString(line)
	for {
		line, err := prompt(promptCont)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return b.String(), nil
}

// opensBlock reports whether line ends in a colon once any trailing comment
// is removed.
func opensBlock(line string) bool {
	inString := false
	for i, c := range line {
		if c == '"' {
			inString = !inString
		}
		if c == '#' && !inString {
			line = line[:i]
			break
		}
	}
	return strings.HasSuffix(strings.TrimSpace(line), ":")
}

// session is one interactive run. Bindings persist across entries, even
// when an entry fails part way.
type session struct {
	p       *pipeline.Pipeline
	globals *interp.Env
	out     io.Writer
	errOut  io.Writer
	color   bool
}

func newSession(out, errOut io.Writer, color bool) *session {
	return &session{
		p:       newPipeline("<repl>", interp.WithOutput(out)),
		globals: interp.NewEnv(nil),
		out:     out,
		errOut:  errOut,
		color:   color,
	}
}

// eval handles one entry and reports whether the session continues.
func (s *session) eval(src string) bool {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, ":") {
		return s.command(trimmed)
	}

	res, err := s.p.RunIn(src, s.globals)
	if err != nil {
		fmt.Fprintln(s.errOut, styleDiagnostic(diag.Render(err, src), s.color))
		return true
	}
	if _, none := res.Value.(interp.None); !none {
		fmt.Fprintln(s.out, styleValue(repr(res.Value), s.color))
	}
	return true
}

func (s *session) command(c string) bool {
	switch strings.ToLower(c) {
	case ":quit", ":q", ":exit":
		return false
	case ":globals":
		writeGlobals(s.out, s.globals)
	case ":reset":
		s.globals = interp.NewEnv(nil)
	case ":help":
		fmt.Fprintln(s.out, replHelp)
	default:
		fmt.Fprintf(s.errOut, "unknown command %s. Type :help for commands.\n", c)
	}
	return true
}
