package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrogen/pos-receipts/internal/config"
	"hydrogen/pos-receipts/internal/logging"
)

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name        string
		config      func() *config.Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil config",
			config:      func() *config.Config { return nil },
			expectError: true,
			errorMsg:    "configuration cannot be nil",
		},
		{
			name:   "defaults",
			config: config.Default,
		},
		{
			name: "chrome backend",
			config: func() *config.Config {
				cfg := config.Default()
				cfg.Capture.Backend = config.BackendChrome
				return cfg
			},
		},
		{
			name: "unknown backend",
			config: func() *config.Config {
				cfg := config.Default()
				cfg.Capture.Backend = "laser"
				return cfg
			},
			expectError: true,
			errorMsg:    "unknown capture backend",
		},
		{
			name: "missing template file",
			config: func() *config.Config {
				cfg := config.Default()
				cfg.Templates.File = filepath.Join(t.TempDir(), "missing.yaml")
				return cfg
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContainerWithLogger(tt.config(), logging.NewMockLogger())
			if tt.expectError {
				require.Error(t, err)
				if tt.errorMsg != "" {
					assert.Contains(t, err.Error(), tt.errorMsg)
				}
				assert.Nil(t, c)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, c)
			assert.NotNil(t, c.GetLogger())
			assert.NotNil(t, c.GetConfig())
			assert.NotNil(t, c.GetRegistry())
			assert.NotNil(t, c.GetSession())
			assert.NoError(t, c.Close())
		})
	}
}

func TestNewContainer_CustomTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	custom := `templates:
  - id: nova
    name: Nova
    variant: standard
    logo: NOVA
    required_fields: [RRN]
    fields:
      rrn: RRN
`
	require.NoError(t, os.WriteFile(path, []byte(custom), 0600))

	cfg := config.Default()
	cfg.Templates.File = path
	logger := logging.NewMockLogger()

	c, err := NewContainerWithLogger(cfg, logger)
	require.NoError(t, err)
	defer c.Close()

	def, ok := c.GetRegistry().Get("nova")
	require.True(t, ok)
	assert.Equal(t, "Nova", def.DisplayName)
	_, ok = c.GetRegistry().Get("hydrogen")
	assert.True(t, ok, "built-in templates stay registered")
	assert.True(t, logger.HasEntry("INFO", "Loaded custom templates"))
}

func TestNewContainer_UsesLogrusByDefault(t *testing.T) {
	c, err := NewContainer(config.Default())
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &logging.LogrusAdapter{}, c.GetLogger())
}
