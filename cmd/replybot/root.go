package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/keepmind9/replybot/internal/core"
	"github.com/spf13/cobra"
)

const defaultEnvFile = ".env"

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "replybot",
	Short: "replybot answers matching chat messages with a canned reply",
	Long: `replybot connects to Discord (or Telegram), watches the messages it can
see, and replies with a fixed text and optional image whenever a message
matches the configured pattern. A global cooldown keeps it from replying
more than once per window.

Configuration is read from the environment (BOT_TOKEN, BOT_COOLDOWN,
BOT_PATTERN, BOT_REPLY_TEXT, BOT_REPLY_IMAGE, BOT_PLATFORM), optionally
seeded from a .env file and a YAML config file.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Optional YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "Environment file loaded before reading configuration")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing default file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if path == defaultEnvFile && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadConfiguration applies the env file and loads the validated config
func loadConfiguration() (*core.Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}
	return core.LoadConfig(core.LoadOptions{ConfigFile: configFile})
}
