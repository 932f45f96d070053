package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/tinypy/pkg/codegen"
	"github.com/GriffinCanCode/tinypy/pkg/logger"
)

var (
	lowerOutput string
	lowerCheck  bool
)

var lowerCmd = &cobra.Command{
	Use:   "lower <file>",
	Short: "Print the pseudo-assembly listing",
	Long: `Lowers a program to a linear, stack-oriented pseudo-assembly listing.
The listing is illustrative and is not meant to be assembled.

Examples:
  tinypy lower prog.py
  tinypy lower -o prog.asm --check prog.py`,
	Args: cobra.ExactArgs(1),
	RunE: runLower,
}

func init() {
	lowerCmd.Flags().StringVarP(&lowerOutput, "output", "o", "", "write the listing to a file instead of stdout")
	lowerCmd.Flags().BoolVar(&lowerCheck, "check", false, "validate labels, mnemonics and stack balance")
	rootCmd.AddCommand(lowerCmd)
}

func runLower(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	lines, err := newPipeline(args[0]).Lower(src)
	if err != nil {
		return reportError(cmd, err, src)
	}

	if lowerCheck {
		v := codegen.NewValidator()
		if err := v.Validate(lines); err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), styleError(err.Error(), cfg.Output.Color))
			return errReported
		}
	}

	text := codegen.Format(lines)
	if lowerOutput == "" {
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(lowerOutput, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write listing: %w", err)
	}
	logger.Info("Listing written", "file", lowerOutput, "lines", len(lines))
	return nil
}
