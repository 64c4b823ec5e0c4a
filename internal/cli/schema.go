package cli

import (
	"encoding/json"
	"fmt"

	"github.com/lacquerai/minijs/internal/ast"
	"github.com/spf13/cobra"
)

// SchemaOutput represents the combined output structure
type SchemaOutput struct {
	Schema json.RawMessage `json:"schema"`
	Nodes  []ast.NodeDef   `json:"nodes"`
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "schema",
		Short:  "Output JSON schema and node definitions",
		Long:   `Output the JSON schema of the tree printed by "parse --output json", and a description of every node kind.`,
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaBytes, err := ast.NewSchema()
			if err != nil {
				return fmt.Errorf("error generating schema: %w", err)
			}

			output := SchemaOutput{
				Schema: json.RawMessage(schemaBytes),
				Nodes:  ast.NodeDefs,
			}

			outputBytes, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling output: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(outputBytes))
			return nil
		},
	}
}
