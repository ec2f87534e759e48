package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/healthmate-tech/rxscan/internal/interaction"
)

// interactionsCmd represents the interactions command.
var interactionsCmd = &cobra.Command{
	Use:   "interactions [medications...]",
	Short: "Check a medication list for known drug-drug interactions",
	Long: `Check two or more medication names against the interaction rule table
without running OCR. Names are matched case-insensitively.

Examples:
  rxscan interactions warfarin aspirin
  rxscan interactions Ibuprofen Lisinopril --format json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return errors.New("provide at least two medication names")
		}

		cfg := GetConfig()
		format, _ := cmd.Flags().GetString("format")

		rules := interaction.Default()
		if cfg.RulesPath != "" {
			var err error
			if rules, err = interaction.LoadFile(cfg.RulesPath); err != nil {
				return fmt.Errorf("failed to load interaction rules: %w", err)
			}
		}

		warnings := rules.Check(args)

		if format == outputFormatJSON {
			obj := struct {
				Medications []string `json:"medications"`
				Warnings    []string `json:"warnings"`
			}{Medications: args, Warnings: warnings}
			bts, err := json.MarshalIndent(obj, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bts))
			return err
		}

		if len(warnings) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "No known interactions.")
			return err
		}
		for _, w := range warnings {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", w); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(interactionsCmd)
	interactionsCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
}

// GetInteractionsCommand returns the interactions command for testing purposes.
func GetInteractionsCommand() *cobra.Command {
	return interactionsCmd
}
