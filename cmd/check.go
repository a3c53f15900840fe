package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcanaland/proxymancer/internal/deck"
	"github.com/arcanaland/proxymancer/internal/validator"
)

var checkCmd = &cobra.Command{
	Use:   "check [FILE]",
	Short: "Check a deck list without downloading anything",
	Long: `Check parses a deck list from FILE or stdin and reports lines that cannot be
parsed, zero quantities and repeated entries. It never contacts Scryfall.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		src := deck.Source{Stdin: cmd.InOrStdin()}
		name := "stdin"
		if len(args) == 1 {
			src.File = args[0]
			name = args[0]
		}

		v := validator.NewValidator(src)
		results, err := v.Validate()
		if err != nil {
			return fmt.Errorf("validation error: %v", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Validation Results:")
		fmt.Fprintln(out, "-------------------")

		if len(results.Errors) == 0 {
			fmt.Fprintf(out, "✅ Deck list '%s' is valid: %d lines, %d cards.\n", name, len(results.Lines), results.Total())
		} else {
			fmt.Fprintf(out, "❌ Deck list '%s' has %d errors:\n", name, len(results.Errors))
			for i, err := range results.Errors {
				fmt.Fprintf(out, "%d. %s\n", i+1, err)
			}
		}

		if len(results.Warnings) > 0 {
			fmt.Fprintln(out, "\nWarnings:")
			for i, warn := range results.Warnings {
				fmt.Fprintf(out, "%d. %s\n", i+1, warn)
			}
		}

		if len(results.Errors) > 0 {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}
