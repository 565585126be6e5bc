package config

// RegistryConfig defines a registry publish target.
type RegistryConfig struct {
	// Name identifies the target in logs and summaries.
	Name string `yaml:"name" toml:"name"`

	// Provider selects the credential provider: "ecr" or "static".
	Provider string `yaml:"provider" toml:"provider"`

	// URL is the registry endpoint for static providers
	// (e.g. "registry.example.com"). ECR derives its endpoint from the
	// authorization token response and ignores this field.
	URL string `yaml:"url" toml:"url"`

	// Region is the AWS region for ECR providers (e.g. "eu-central-1").
	Region string `yaml:"region" toml:"region"`

	// Credentials is an env var prefix. Static providers read
	// PREFIX_USER / PREFIX_PASS. ECR providers read PREFIX_ACCESS_KEY /
	// PREFIX_SECRET_KEY, falling back to the standard AWS credential
	// chain when the prefix is empty.
	Credentials string `yaml:"credentials" toml:"credentials"`

	// Branches restricts which branches publish to this registry.
	// Pattern syntax: regex, literal, or !negated. Empty = all branches.
	Branches []string `yaml:"branches" toml:"branches"`
}
