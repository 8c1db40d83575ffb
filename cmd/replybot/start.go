package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keepmind9/replybot/internal/bot"
	"github.com/keepmind9/replybot/internal/core"
	"github.com/keepmind9/replybot/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// newAdapter is swapped in tests
var newAdapter = bot.NewAdapter

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start replybot",
	Long: `Connect to the configured platform and reply to matching messages until
interrupted. Exits with status 1 if the configuration is invalid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfiguration()
		if err != nil {
			return err
		}

		logConfig := logger.Config{
			Level:        config.Logging.Level,
			File:         config.Logging.File,
			MaxSize:      config.Logging.MaxSize,
			MaxBackups:   config.Logging.MaxBackups,
			MaxAge:       config.Logging.MaxAge,
			Compress:     config.Logging.Compress,
			EnableStdout: config.Logging.EnableStdout,
		}
		if err := logger.InitLogger(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"config_file": configFile,
			"log_level":   config.Logging.Level,
			"log_file":    config.Logging.File,
		}).Info("logger-initialized")

		for _, warning := range config.Warnings {
			logger.WithField("warning", warning).Warn("suspicious-configuration")
		}

		adapter, err := newAdapter(config.Platform, config.Token)
		if err != nil {
			return err
		}

		return runEngine(core.NewEngine(config, adapter))
	},
}

// runEngine runs engine until SIGINT/SIGTERM or an engine error
func runEngine(engine *core.Engine) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	engineErrChan := make(chan error, 1)
	go func() {
		engineErrChan <- engine.Run(context.Background())
	}()

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("received-signal-shutting-down")
		if err := engine.Stop(); err != nil {
			logger.WithField("error", err).Error("error-during-shutdown")
		}
	case err := <-engineErrChan:
		if err != nil {
			logger.WithField("error", err).Error("engine-error")
			return err
		}
	}

	logger.Info("replybot-stopped")
	return nil
}
