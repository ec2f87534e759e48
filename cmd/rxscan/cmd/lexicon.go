package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/healthmate-tech/rxscan/internal/lexical"
	"github.com/healthmate-tech/rxscan/internal/lexicon"
)

// lexiconCmd represents the lexicon command.
var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Show the medication vocabulary used for matching",
	Long: `Print every canonical medication and its known aliases, either from the
built-in vocabulary or from the file configured via --lexicon. With --match,
run a text through correction and resolution instead, to see what the
vocabulary would make of it.

Examples:
  rxscan lexicon
  rxscan lexicon --lexicon custom.yaml --format json
  rxscan lexicon --match "Amoxicilin 500mg twice daily"`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format, _ := cmd.Flags().GetString("format")
		match, _ := cmd.Flags().GetString("match")

		lex := lexicon.Default()
		if cfg.LexiconPath != "" {
			var err error
			if lex, err = lexicon.LoadFile(cfg.LexiconPath); err != nil {
				return fmt.Errorf("failed to load lexicon: %w", err)
			}
		}

		if match != "" {
			return runMatch(cmd, lex, match, format)
		}

		if format == outputFormatJSON {
			bts, err := json.MarshalIndent(lex.Entries(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bts))
			return err
		}

		for _, e := range lex.Entries() {
			line := lexicon.Display(e.Canonical)
			if len(e.Aliases) > 0 {
				line += " (" + strings.Join(e.Aliases, ", ") + ")"
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
				return err
			}
		}
		return nil
	},
}

// runMatch shows how the corrector and resolver treat an arbitrary text.
func runMatch(cmd *cobra.Command, lex *lexicon.Lexicon, text, format string) error {
	corrected := lexical.NewCorrector(lex).Correct(text)
	medications := lexical.NewResolver(lex).Resolve(corrected)

	if format == outputFormatJSON {
		obj := struct {
			Input       string   `json:"input"`
			Corrected   string   `json:"corrected"`
			Medications []string `json:"medications"`
		}{Input: text, Corrected: corrected, Medications: medications}
		bts, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return err
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Corrected: %s\n", corrected); err != nil {
		return err
	}
	if len(medications) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No medications matched.")
		return err
	}
	for _, m := range medications {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", m); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(lexiconCmd)
	lexiconCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	lexiconCmd.Flags().StringP("match", "m", "", "run a text through correction and resolution")
}

// GetLexiconCommand returns the lexicon command for testing purposes.
func GetLexiconCommand() *cobra.Command {
	return lexiconCmd
}
