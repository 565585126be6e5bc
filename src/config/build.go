package config

// BuildConfig holds docker build configuration.
type BuildConfig struct {
	Context    string            `yaml:"context" toml:"context"`
	Dockerfile string            `yaml:"dockerfile" toml:"dockerfile"`
	Target     string            `yaml:"target" toml:"target"`
	Platforms  []string          `yaml:"platforms" toml:"platforms"`
	BuildArgs  map[string]string `yaml:"build_args" toml:"build_args"`
}

// DefaultBuildConfig returns the build defaults: current directory as
// context with its top-level Dockerfile.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Context:    ".",
		Dockerfile: "Dockerfile",
	}
}

// SecretsConfig controls the pre-build leaked-credential gate.
type SecretsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// MaxFileSize caps the size of files scanned, in bytes. Larger files
	// are skipped (binaries, archives). Zero uses the default of 1 MiB.
	MaxFileSize int64 `yaml:"max_file_size" toml:"max_file_size"`
}

// DefaultSecretsConfig returns secrets gate defaults (enabled).
func DefaultSecretsConfig() SecretsConfig {
	return SecretsConfig{
		Enabled:     true,
		MaxFileSize: 1 << 20,
	}
}

// ScanConfig holds vulnerability scan gate configuration.
type ScanConfig struct {
	// Enabled runs the scan gate before publishing (default true).
	// Disabling it means builds publish unscanned; the gate then reports
	// pass without invoking the scanner.
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Threshold is the severity at or above which findings fail the gate.
	// Values: "high" or "critical" (default "critical").
	Threshold string `yaml:"threshold" toml:"threshold"`

	// OutputDir is where scan artifacts (JSON report) are written.
	OutputDir string `yaml:"output_dir" toml:"output_dir"`
}

// DefaultScanConfig returns scan gate defaults.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Enabled:   true,
		Threshold: "critical",
		OutputDir: ".shipgate/scan",
	}
}
