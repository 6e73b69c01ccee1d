package configloader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server struct {
		Port    int           `koanf:"port"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"server"`
	Database struct {
		URL string `koanf:"url"`
	} `koanf:"database"`
}

func (c *testConfig) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

var testDefaults = map[string]any{
	"server.port":    3000,
	"server.timeout": 5 * time.Second,
}

func Test_Load(t *testing.T) {
	testCases := []struct {
		name     string
		yaml     string
		dotenv   string
		env      map[string]string
		validate func(t *testing.T, cfg *testConfig)
	}{
		{
			name: "defaults only",
			validate: func(t *testing.T, cfg *testConfig) {
				assert.Equal(t, 3000, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
			},
		},
		{
			name: "yaml overrides defaults",
			yaml: "server:\n  port: 8080\n  timeout: 10s\n",
			validate: func(t *testing.T, cfg *testConfig) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 10*time.Second, cfg.Server.Timeout)
			},
		},
		{
			name:   ".env overrides yaml",
			yaml:   "server:\n  port: 8080\n",
			dotenv: "CATALOG_SERVER_PORT=8081\nOTHER_VALUE=ignored\n",
			validate: func(t *testing.T, cfg *testConfig) {
				assert.Equal(t, 8081, cfg.Server.Port)
			},
		},
		{
			name:   "environment has the highest priority",
			yaml:   "server:\n  port: 8080\n",
			dotenv: "CATALOG_SERVER_PORT=8081\n",
			env: map[string]string{
				"CATALOG_SERVER_PORT":  "8082",
				"CATALOG_DATABASE_URL": "mongodb://localhost:27017",
			},
			validate: func(t *testing.T, cfg *testConfig) {
				assert.Equal(t, 8082, cfg.Server.Port)
				assert.Equal(t, "mongodb://localhost:27017", cfg.Database.URL)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			dir := t.TempDir()
			t.Chdir(dir)
			if tc.yaml != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(tc.yaml), 0o600))
			}
			if tc.dotenv != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, envFile), []byte(tc.dotenv), 0o600))
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			// when
			cfg, err := Load[*testConfig]("catalog", testDefaults)
			// then
			require.NoError(t, err)
			tc.validate(t, cfg)
		})
	}
}

func Test_Load_ValidationError(t *testing.T) {
	// given
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_SERVER_PORT", "-1")

	// when
	_, err := Load[*testConfig]("catalog", testDefaults)

	// then
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}
