// Package core holds replybot's configuration, the cooldown responder, the
// reply payload builder and the engine that wires them to a bot adapter.
//
// # Configuration
//
// Configuration comes from an optional YAML file and the environment, with
// environment variables taking precedence:
//
//	BOT_TOKEN        gateway credential (required)
//	BOT_COOLDOWN     cooldown in minutes (default 5)
//	BOT_PATTERN      case-insensitive trigger regexp
//	BOT_REPLY_TEXT   reply body
//	BOT_REPLY_IMAGE  optional image attached to every reply
//	BOT_PLATFORM     discord (default) or telegram
//	LOG_LEVEL        debug, info, warn, error
//	LOG_FILE         rotated log file
//
// # Example Configuration
//
//	token: "${DISCORD_TOKEN}"
//	cooldown: 5
//	pattern: "\\bhello\\b"
//	reply_text: "hi!"
//	reply_image: "./assets/wave.png"
//	logging:
//	  level: info
//	  file: /var/log/replybot/replybot.log
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/keepmind9/replybot/internal/bot"
	"github.com/keepmind9/replybot/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	EnvToken      = "BOT_TOKEN"
	EnvCooldown   = "BOT_COOLDOWN"
	EnvPattern    = "BOT_PATTERN"
	EnvReplyText  = "BOT_REPLY_TEXT"
	EnvReplyImage = "BOT_REPLY_IMAGE"
	EnvPlatform   = "BOT_PLATFORM"
	EnvLogLevel   = "LOG_LEVEL"
	EnvLogFile    = "LOG_FILE"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// LoadOptions controls where LoadConfig reads from
type LoadOptions struct {
	// ConfigFile is an optional YAML file. Empty means environment only.
	ConfigFile string

	// LookupEnv defaults to os.LookupEnv
	LookupEnv func(key string) (string, bool)

	// Getwd resolves relative image paths; defaults to os.Getwd
	Getwd func() (string, error)
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.LookupEnv == nil {
		o.LookupEnv = os.LookupEnv
	}
	if o.Getwd == nil {
		o.Getwd = os.Getwd
	}
	return o
}

// LoadConfig reads and validates the configuration. It never exits the
// process; callers decide what to do with the error.
func LoadConfig(opts LoadOptions) (*Config, error) {
	opts = opts.withDefaults()

	var raw fileConfig
	if opts.ConfigFile != "" {
		if err := readConfigFile(opts.ConfigFile, opts.LookupEnv, &raw); err != nil {
			return nil, err
		}
	}

	overrideFromEnv(&raw, opts.LookupEnv)

	config, err := buildConfig(raw, opts.Getwd)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// readConfigFile parses a YAML file after expanding ${VAR} references
func readConfigFile(path string, lookup func(string) (string, bool), out *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	expanded, err := expandEnv(string(data), lookup)
	if err != nil {
		return fmt.Errorf("failed to expand environment variables: %w", err)
	}

	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// envRefPattern matches ${VAR_NAME}. Bare $ is left alone since the
// pattern field is a regexp source where $ is a metacharacter.
var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string, lookup func(string) (string, bool)) (string, error) {
	var missingVars []string

	result := envRefPattern.ReplaceAllStringFunc(input, func(ref string) string {
		key := envRefPattern.FindStringSubmatch(ref)[1]
		if val, ok := lookup(key); ok {
			return val
		}
		missingVars = append(missingVars, key)
		return ""
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return result, nil
}

func overrideFromEnv(raw *fileConfig, lookup func(string) (string, bool)) {
	for key, field := range map[string]**string{
		EnvToken:      &raw.Token,
		EnvCooldown:   &raw.Cooldown,
		EnvPattern:    &raw.Pattern,
		EnvReplyText:  &raw.ReplyText,
		EnvReplyImage: &raw.ReplyImage,
		EnvPlatform:   &raw.Platform,
	} {
		if val, ok := lookup(key); ok {
			v := val
			*field = &v
		}
	}

	if val, ok := lookup(EnvLogLevel); ok && val != "" {
		raw.Logging.Level = val
	}
	if val, ok := lookup(EnvLogFile); ok && val != "" {
		raw.Logging.File = val
	}
}

func buildConfig(raw fileConfig, getwd func() (string, error)) (*Config, error) {
	config := &Config{
		Token:     strings.TrimSpace(deref(raw.Token)),
		Pattern:   deref(raw.Pattern),
		ReplyText: deref(raw.ReplyText),
	}

	if config.Token == "" {
		return nil, fmt.Errorf("%w: missing bot token, set %s", ErrInvalidConfig, EnvToken)
	}

	cooldown, err := parseCooldown(raw.Cooldown)
	if err != nil {
		return nil, err
	}
	config.Cooldown = cooldown

	config.Platform = strings.ToLower(strings.TrimSpace(deref(raw.Platform)))
	if config.Platform == "" {
		config.Platform = bot.PlatformDiscord
	}
	if config.Platform != bot.PlatformDiscord && config.Platform != bot.PlatformTelegram {
		return nil, fmt.Errorf("%w: unsupported platform %q (want %s or %s)",
			ErrInvalidConfig, config.Platform, bot.PlatformDiscord, bot.PlatformTelegram)
	}

	config.matcher, err = compilePattern(config.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pattern %q: %v", ErrInvalidConfig, config.Pattern, err)
	}

	if image := strings.TrimSpace(deref(raw.ReplyImage)); image != "" {
		config.ReplyImage, err = resolvePath(image, getwd)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reply image path: %w", err)
		}
	}

	config.Logging = resolveLogging(raw.Logging)
	config.Warnings = collectWarnings(config)

	return config, nil
}

// parseCooldown converts the configured minutes into a duration. An unset
// value means the default; a set but unparsable or negative value is invalid.
func parseCooldown(raw *string) (time.Duration, error) {
	if raw == nil {
		return time.Duration(constants.DefaultCooldownMinutes) * time.Minute, nil
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("%w: bot cooldown %q is invalid, set %s to a non-negative number of minutes",
			ErrInvalidConfig, *raw, EnvCooldown)
	}
	return time.Duration(minutes) * time.Minute, nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

// resolvePath makes path absolute against the working directory
func resolvePath(path string, getwd func() (string, error)) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	wd, err := getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}

func resolveLogging(raw fileLoggingConfig) LoggingConfig {
	logging := LoggingConfig{
		Level:        raw.Level,
		File:         raw.File,
		MaxSize:      raw.MaxSize,
		MaxBackups:   raw.MaxBackups,
		MaxAge:       raw.MaxAge,
		Compress:     true,
		EnableStdout: true,
	}
	if logging.Level == "" {
		logging.Level = constants.DefaultLogLevel
	}
	if logging.MaxSize == 0 {
		logging.MaxSize = constants.DefaultLogMaxSize
	}
	if logging.MaxBackups == 0 {
		logging.MaxBackups = constants.DefaultLogMaxBackups
	}
	if logging.MaxAge == 0 {
		logging.MaxAge = constants.DefaultLogMaxAge
	}
	if raw.Compress != nil {
		logging.Compress = *raw.Compress
	}
	if raw.EnableStdout != nil {
		logging.EnableStdout = *raw.EnableStdout
	}
	return logging
}

func collectWarnings(config *Config) []string {
	var warnings []string
	if config.Pattern == "" {
		warnings = append(warnings, "pattern is empty and matches every non-blank message")
	}
	if config.ReplyText == "" && config.ReplyImage == "" {
		warnings = append(warnings, "reply text and reply image are both empty")
	}
	if config.Cooldown == 0 {
		warnings = append(warnings, "cooldown is 0, every matching message gets a reply")
	}
	return warnings
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
