package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/tinypy/pkg/frontend"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Print the token stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

var astCmd = &cobra.Command{
	Use:   "ast <file>",
	Short: "Print the syntax tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runAST,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(astCmd)
}

func runTokens(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	tokens, err := newPipeline(args[0]).Tokenize(src)
	if err != nil {
		return reportError(cmd, err, src)
	}
	out := cmd.OutOrStdout()
	for _, tok := range tokens {
		fmt.Fprintf(out, "%d:%d\t%s\n", tok.Line, tok.Col, tok)
	}
	return nil
}

func runAST(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	program, err := newPipeline(args[0]).Parse(src)
	if err != nil {
		return reportError(cmd, err, src)
	}
	fmt.Fprint(cmd.OutOrStdout(), frontend.Dump(program))
	return nil
}
