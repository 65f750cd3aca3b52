package commands

import (
	"github.com/spf13/cobra"
)

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print a schema in normalized form",
	Long: `Parses a schema and prints every curve with its validity and explicit
nodes. Rejected lines are reported on stderr.

Example:
  truffle schema --schema rolls.schema`,
	RunE: runSchema,
}

var schemaFile string

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().StringVar(&schemaFile, "schema", "", "schema file (required)")
	schemaCmd.MarkFlagRequired("schema")
}

func runSchema(cmd *cobra.Command, args []string) error {
	s, err := loadSchema(cmd.InOrStdin(), schemaFile, appLogger)
	if err != nil {
		return err
	}
	return s.WriteTo(cmd.OutOrStdout())
}
