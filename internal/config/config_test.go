package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"LEXICON_DB_PATH", "USER_DB_TYPE", "USER_DB_PATH", "USER_DB_URL",
		"LEGACY_STATE_WRITES", "SEARCH_LIMIT", "SEARCH_DEBOUNCE", "LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ag_db.sqlite", cfg.LexiconPath)
	assert.Equal(t, "sqlite", cfg.UserDBType)
	assert.Equal(t, "user_data.sqlite", cfg.UserDBPath)
	assert.False(t, cfg.LegacyStateWrites)
	assert.Equal(t, 200, cfg.SearchLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEXICON_DB_PATH", "/data/lexicon.sqlite")
	t.Setenv("USER_DB_TYPE", "postgres")
	t.Setenv("USER_DB_URL", "postgres://localhost/oraia")
	t.Setenv("LEGACY_STATE_WRITES", "true")
	t.Setenv("SEARCH_LIMIT", "50")
	t.Setenv("SEARCH_DEBOUNCE", "100ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/lexicon.sqlite", cfg.LexiconPath)
	assert.Equal(t, "postgres", cfg.UserDBType)
	assert.True(t, cfg.LegacyStateWrites)
	assert.Equal(t, 50, cfg.SearchLimit)
	assert.Equal(t, 100*time.Millisecond, cfg.SearchDebounce)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "sqlite defaults",
			cfg:  Config{UserDBType: "sqlite", UserDBPath: "u.sqlite", SearchLimit: 200},
		},
		{
			name:    "postgres without url",
			cfg:     Config{UserDBType: "postgres", SearchLimit: 200},
			wantErr: true,
		},
		{
			name:    "unknown type",
			cfg:     Config{UserDBType: "oracle", SearchLimit: 200},
			wantErr: true,
		},
		{
			name:    "zero limit",
			cfg:     Config{UserDBType: "sqlite", UserDBPath: "u.sqlite"},
			wantErr: true,
		},
		{
			name:    "negative debounce",
			cfg:     Config{UserDBType: "sqlite", UserDBPath: "u.sqlite", SearchLimit: 1, SearchDebounce: -time.Second},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
