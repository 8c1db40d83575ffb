package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var validateJSON bool

var errInvalidConfiguration = errors.New("configuration is invalid")

// ValidationResult represents the validation result
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Config     string   `json:"config,omitempty"`
	Platform   string   `json:"platform,omitempty"`
	Cooldown   string   `json:"cooldown,omitempty"`
	Pattern    string   `json:"pattern,omitempty"`
	ReplyImage string   `json:"reply_image,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate replybot configuration",
	Long: `Load and validate the configuration without connecting to any platform.

Exit codes:
  0 - Configuration is valid
  1 - Configuration has errors`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result := ValidationResult{Config: configFile}

		cfg, err := loadConfiguration()
		if err != nil {
			result.Errors = []string{err.Error()}
			outputValidationResult(cmd.OutOrStdout(), result, validateJSON)
			return errInvalidConfiguration
		}

		result.Valid = true
		result.Platform = cfg.Platform
		result.Cooldown = cfg.Cooldown.String()
		result.Pattern = cfg.Pattern
		result.ReplyImage = cfg.ReplyImage
		result.Warnings = cfg.Warnings

		outputValidationResult(cmd.OutOrStdout(), result, validateJSON)
		return nil
	},
}

func outputValidationResult(w io.Writer, result ValidationResult, jsonFormat bool) {
	if jsonFormat {
		output, err := json.Marshal(result)
		if err != nil {
			fmt.Fprintf(w, "{\"error\": \"failed to marshal json: %v\"}\n", err)
			return
		}
		fmt.Fprintln(w, string(output))
		return
	}

	if result.Valid {
		fmt.Fprintln(w, "✓ Configuration is valid")
		if result.Config != "" {
			fmt.Fprintf(w, "  - Config: %s\n", result.Config)
		}
		fmt.Fprintf(w, "  - Platform: %s\n", result.Platform)
		fmt.Fprintf(w, "  - Cooldown: %s\n", result.Cooldown)
		fmt.Fprintf(w, "  - Pattern: %q\n", result.Pattern)
		if result.ReplyImage != "" {
			fmt.Fprintf(w, "  - Reply image: %s\n", result.ReplyImage)
		}
	} else {
		fmt.Fprintln(w, "❌ Configuration validation failed:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", errMsg)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "\n⚠️  Warnings:")
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}
