package core

import (
	"regexp"
	"time"
)

// Config is the validated, immutable replybot configuration.
// Build it with LoadConfig; the zero value is not usable.
type Config struct {
	Token      string
	Platform   string
	Cooldown   time.Duration
	Pattern    string // pattern source as configured, without the case-insensitive flag
	ReplyText  string
	ReplyImage string // absolute path, empty when no image is configured
	Logging    LoggingConfig

	// Warnings lists suspicious but valid settings found while loading
	Warnings []string

	matcher *regexp.Regexp
}

// Matcher returns the compiled, case-insensitive trigger pattern
func (c *Config) Matcher() *regexp.Regexp {
	return c.matcher
}

// Matches reports whether text would trigger a reply, ignoring the cooldown
func (c *Config) Matches(text string) bool {
	return matchesTrigger(c.matcher, text)
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	File         string `yaml:"file"`          // Log file path
	MaxSize      int    `yaml:"max_size"`      // Single file max size in MB (default: 100)
	MaxBackups   int    `yaml:"max_backups"`   // Number of backups to keep (default: 5)
	MaxAge       int    `yaml:"max_age"`       // Maximum days to retain (default: 30)
	Compress     bool   `yaml:"compress"`      // Whether to compress old logs (default: true)
	EnableStdout bool   `yaml:"enable_stdout"` // Also output to stdout (default: true)
}

// fileConfig mirrors the optional YAML file. Pointer fields distinguish
// "absent" from "set to the zero value".
type fileConfig struct {
	Token      *string           `yaml:"token"`
	Cooldown   *string           `yaml:"cooldown"`
	Pattern    *string           `yaml:"pattern"`
	ReplyText  *string           `yaml:"reply_text"`
	ReplyImage *string           `yaml:"reply_image"`
	Platform   *string           `yaml:"platform"`
	Logging    fileLoggingConfig `yaml:"logging"`
}

type fileLoggingConfig struct {
	Level        string `yaml:"level"`
	File         string `yaml:"file"`
	MaxSize      int    `yaml:"max_size"`
	MaxBackups   int    `yaml:"max_backups"`
	MaxAge       int    `yaml:"max_age"`
	Compress     *bool  `yaml:"compress"`
	EnableStdout *bool  `yaml:"enable_stdout"`
}
