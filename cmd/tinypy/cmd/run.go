package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/tinypy/pkg/interp"
)

var runGlobals bool

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Interpret a program",
	Long: `Interprets a program and writes whatever it prints to stdout.

Examples:
  tinypy run examples/add.py
  tinypy run --globals examples/add.py
  cat prog.py | tinypy run -`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runGlobals, "globals", false, "print the top-level bindings after the run")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	res, err := newPipeline(args[0], interp.WithOutput(out)).Run(src)
	if err != nil {
		return reportError(cmd, err, src)
	}
	if runGlobals {
		writeGlobals(out, res.Globals)
	}
	return nil
}

// writeGlobals prints one "name = value" line per binding, sorted by name.
func writeGlobals(w io.Writer, env *interp.Env) {
	for _, name := range env.Names() {
		v, _ := env.Local(name)
		fmt.Fprintf(w, "%s = %s\n", name, repr(v))
	}
}

// repr is the echo form of a value: strings are quoted.
func repr(v interp.Value) string {
	if s, ok := v.(interp.Str); ok {
		return "'" + string(s) + "'"
	}
	return v.String()
}
