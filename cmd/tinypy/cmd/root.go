package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/tinypy/pkg/config"
	"github.com/GriffinCanCode/tinypy/pkg/diag"
	"github.com/GriffinCanCode/tinypy/pkg/interp"
	"github.com/GriffinCanCode/tinypy/pkg/logger"
	"github.com/GriffinCanCode/tinypy/pkg/pipeline"
)

var (
	cfgFile string
	verbose bool

	cfg = config.Default()
)

// errReported marks an error that has already been shown to the user.
var errReported = errors.New("error already reported")

var rootCmd = &cobra.Command{
	Use:   "tinypy",
	Short: "tinypy - a small indentation-based language",
	Long: `tinypy lexes, parses, interprets and lowers a small Python-like language.

Commands:
  run     interpret a program
  tokens  print the token stream
  ast     print the syntax tree
  lower   print the pseudo-assembly listing
  repl    start an interactive session`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		printError(os.Stderr, err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $TINYPY_CONFIG or ./tinypy.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// setup loads configuration and initialises logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	if err := logger.Init(lc); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger.Debug("Configuration loaded", "file", cfgFile, "level", cfg.Log.Level)
	return nil
}

func newPipeline(file string, opts ...interp.Option) *pipeline.Pipeline {
	opts = append([]interp.Option{interp.WithMaxCallDepth(cfg.Interpreter.MaxCallDepth)}, opts...)
	return pipeline.New(
		pipeline.WithFile(file),
		pipeline.WithMaxDepth(cfg.Parser.MaxDepth),
		pipeline.WithInterpreter(opts...),
	)
}

// readSource reads a program from path, or from stdin when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	logger.LogFileProcessing(path)
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// reportError shows err against src on stderr.
func reportError(cmd *cobra.Command, err error, src string) error {
	fmt.Fprintln(cmd.ErrOrStderr(), styleDiagnostic(diag.Render(err, src), cfg.Output.Color))
	return errReported
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, styleError("error: "+err.Error(), cfg.Output.Color))
}
