package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, ".shipgate.yml", `
repository: platform/api
branches: ["^main$", "^dev$", "^feature/.*"]
build:
  dockerfile: docker/Dockerfile
  build_args:
    GO_VERSION: "1.25"
scan:
  threshold: high
registries:
  - name: prod-ecr
    provider: ecr
    region: eu-central-1
    branches: ["^main$"]
  - name: harbor
    provider: static
    url: registry.example.com
    credentials: HARBOR
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "platform/api", cfg.Repository)
	assert.Equal(t, "docker/Dockerfile", cfg.Build.Dockerfile)
	assert.Equal(t, ".", cfg.Build.Context, "defaults survive partial override")
	assert.Equal(t, "1.25", cfg.Build.BuildArgs["GO_VERSION"])
	assert.Equal(t, "high", cfg.Scan.Threshold)
	assert.True(t, cfg.Scan.Enabled, "scan enabled by default")
	require.Len(t, cfg.Registries, 2)
	assert.Equal(t, "ecr", cfg.Registries[0].Provider)
	assert.Equal(t, "eu-central-1", cfg.Registries[0].Region)
	assert.Equal(t, "HARBOR", cfg.Registries[1].Credentials)
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "shipgate.toml", `
repository = "platform/api"

[scan]
threshold = "critical"

[[registries]]
name = "prod-ecr"
provider = "ecr"
region = "us-east-1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "platform/api", cfg.Repository)
	assert.Equal(t, "critical", cfg.Scan.Threshold)
	require.Len(t, cfg.Registries, 1)
	assert.Equal(t, "us-east-1", cfg.Registries[0].Region)
}

func TestLoadMissingDefaultReturnsDefaults(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Dockerfile", cfg.Build.Dockerfile)
	assert.Equal(t, "critical", cfg.Scan.Threshold)
	assert.True(t, cfg.Secrets.Enabled)
}

func TestLoadMissingExplicitFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:      "missing repository",
			mutate:    func(c *Config) { c.Repository = "" },
			expectErr: "repository",
		},
		{
			name:      "repository with tag",
			mutate:    func(c *Config) { c.Repository = "platform/api:latest" },
			expectErr: "must not contain a tag",
		},
		{
			name:      "bad threshold",
			mutate:    func(c *Config) { c.Scan.Threshold = "medium" },
			expectErr: "unknown level",
		},
		{
			name:      "ecr without region",
			mutate:    func(c *Config) { c.Registries[0].Region = "" },
			expectErr: "region is required",
		},
		{
			name: "duplicate registry names",
			mutate: func(c *Config) {
				c.Registries = append(c.Registries, c.Registries[0])
			},
			expectErr: "duplicate registry name",
		},
		{
			name:      "unknown provider",
			mutate:    func(c *Config) { c.Registries[0].Provider = "quay" },
			expectErr: "unknown provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.Repository = "platform/api"
			cfg.Registries = []RegistryConfig{
				{Name: "prod", Provider: "ecr", Region: "eu-central-1"},
			}
			tt.mutate(cfg)

			_, err := Validate(cfg)
			if tt.expectErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectErr)
			}
		})
	}
}

func TestValidateWarnsWithoutRegistries(t *testing.T) {
	cfg := defaults()
	cfg.Repository = "platform/api"

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
}
