package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "./.agui/system.log", cfg.Logging.LogFile)
	assert.False(t, cfg.Logging.Persist)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.True(t, cfg.Assembler.ShowThinking)
	assert.False(t, cfg.Assembler.Strict)
	assert.Equal(t, 0, cfg.Assembler.MaxMessages)

	assert.Equal(t, "./.agui/history", cfg.History.Directory)
	assert.False(t, cfg.History.Persist)
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "test-settings.yaml")

	configContent := `
logging:
  level: debug
  persist: true
assembler:
  show_thinking: false
  strict: true
history:
  directory: /tmp/agui-history
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Persist)
	assert.False(t, cfg.Assembler.ShowThinking)
	assert.True(t, cfg.Assembler.Strict)
	assert.Equal(t, "/tmp/agui-history", cfg.History.Directory)
}

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()
	t.Setenv("AGUI_LOGGING_LEVEL", "error")
	t.Setenv("AGUI_ASSEMBLER_STRICT", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.True(t, cfg.Assembler.Strict)
}

func TestGetPanicsBeforeLoad(t *testing.T) {
	viper.Reset()
	saved := cfg
	cfg = nil
	defer func() {
		cfg = saved
		r := recover()
		assert.NotNil(t, r)
	}()
	Get()
}
