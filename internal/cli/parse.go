package cli

import (
	"fmt"

	"github.com/lacquerai/minijs/internal/ast"
	"github.com/lacquerai/minijs/internal/style"
	"github.com/lacquerai/minijs/pkg/minijs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newParseCmd() *cobra.Command {
	var (
		expr   string
		format bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Print the syntax tree of a program",
		Long: `Parse a program without running it and print its syntax tree.

Examples:
  minijs parse -e 'a = b + 1'                 # Indented tree
  minijs parse program.js --output json       # Tree as JSON
  minijs parse -e 'a=b+1' --format            # Canonical source text`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, file, err := readSource(cmd.InOrStdin(), args, expr)
			if err != nil {
				return err
			}

			program, err := minijs.Parse(source)
			if err != nil {
				printError(cmd.ErrOrStderr(), err, source, file)
				return errFailed
			}

			w := cmd.OutOrStdout()
			if format {
				fmt.Fprintln(w, ast.Format(program))
				return nil
			}

			switch viper.GetString("output") {
			case "json":
				style.PrintJSON(w, ast.Dump(program))
			case "yaml":
				style.PrintYAML(w, ast.Dump(program))
			default:
				fmt.Fprint(w, ast.Tree(program))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&expr, "expr", "e", "", "program source given on the command line")
	cmd.Flags().BoolVar(&format, "format", false, "print the program in canonical form instead of its tree")

	return cmd
}
