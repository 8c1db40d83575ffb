package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var matchText string

var matchCmd = &cobra.Command{
	Use:   "match --text <message>",
	Short: "Check whether a message would trigger a reply",
	Long: `Test a message against the configured pattern using the same trimming
and case-insensitive matching as the running bot. The cooldown is not
applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("text") {
			return fmt.Errorf("--text is required")
		}

		cfg, err := loadConfiguration()
		if err != nil {
			return err
		}

		if cfg.Matches(matchText) {
			fmt.Fprintf(cmd.OutOrStdout(), "match: %q triggers a reply (pattern %q)\n", matchText, cfg.Pattern)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "no match: %q does not trigger a reply (pattern %q)\n", matchText, cfg.Pattern)
		}
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVarP(&matchText, "text", "t", "", "Message text to test")
}
