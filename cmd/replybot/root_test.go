package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/keepmind9/replybot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var botEnvKeys = []string{
	core.EnvToken,
	core.EnvCooldown,
	core.EnvPattern,
	core.EnvReplyText,
	core.EnvReplyImage,
	core.EnvPlatform,
	core.EnvLogLevel,
	core.EnvLogFile,
}

// clearBotEnv unsets every replybot variable for the duration of the test
func clearBotEnv(t *testing.T) {
	t.Helper()
	for _, key := range botEnvKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// runCommand executes the root command with args and returns its output
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configFile = ""
	envFile = defaultEnvFile
	validateJSON = false
	versionJSON = false
	matchText = ""
	if f := matchCmd.Flags().Lookup("text"); f != nil {
		f.Changed = false
	}
	if f := rootCmd.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_Structure(t *testing.T) {
	assert.Equal(t, "replybot", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Nil(t, rootCmd.Parent())

	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		assert.False(t, names[cmd.Name()], "command name %s should be unique", cmd.Name())
		names[cmd.Name()] = true
		assert.NotEmpty(t, cmd.Short, "command %s should have short description", cmd.Name())
		assert.NotEmpty(t, cmd.Long, "command %s should have long description", cmd.Name())
	}

	for _, expected := range []string{"start", "validate", "match", "version"} {
		assert.True(t, names[expected], "expected command %s should exist", expected)
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("env-file"))
}

func TestRootCommand_Help(t *testing.T) {
	out, err := runCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "replybot")
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing default file is ignored", func(t *testing.T) {
		dir := t.TempDir()
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		defer os.Chdir(wd)

		assert.NoError(t, loadEnvFile(defaultEnvFile))
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		assert.Error(t, loadEnvFile(filepath.Join(t.TempDir(), "custom.env")))
	})

	t.Run("empty path", func(t *testing.T) {
		assert.NoError(t, loadEnvFile(""))
	})

	t.Run("loads variables without overriding", func(t *testing.T) {
		clearBotEnv(t)
		t.Setenv(core.EnvPattern, "from-process")

		path := filepath.Join(t.TempDir(), "bot.env")
		require.NoError(t, os.WriteFile(path, []byte("BOT_TOKEN=from-file\nBOT_PATTERN=from-file\n"), 0644))

		require.NoError(t, loadEnvFile(path))
		assert.Equal(t, "from-file", os.Getenv(core.EnvToken))
		assert.Equal(t, "from-process", os.Getenv(core.EnvPattern))
	})
}
