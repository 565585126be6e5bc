package config

import (
	"fmt"
	"strings"
)

// Validate checks structural invariants of a loaded Config.
// Returns warnings (soft issues) and a hard error if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	if strings.TrimSpace(cfg.Repository) == "" {
		errs = append(errs, "repository: is required")
	}
	if strings.Contains(cfg.Repository, ":") {
		errs = append(errs, fmt.Sprintf("repository: %q must not contain a tag", cfg.Repository))
	}

	switch strings.ToLower(cfg.Scan.Threshold) {
	case "high", "critical":
	case "":
		if cfg.Scan.Enabled {
			errs = append(errs, "scan.threshold: is required when scanning is enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("scan.threshold: unknown level %q (valid: high, critical)", cfg.Scan.Threshold))
	}

	if len(cfg.Registries) == 0 {
		warnings = append(warnings, "no registries configured; builds stay local")
	}

	names := make(map[string]bool)
	for i, r := range cfg.Registries {
		rpath := fmt.Sprintf("registries[%d]", i)

		if r.Name != "" {
			if names[r.Name] {
				errs = append(errs, fmt.Sprintf("%s: duplicate registry name %q", rpath, r.Name))
			}
			names[r.Name] = true
		}

		switch r.Provider {
		case "ecr":
			if r.Region == "" {
				errs = append(errs, fmt.Sprintf("%s: region is required for provider ecr", rpath))
			}
		case "static":
			if r.URL == "" {
				errs = append(errs, fmt.Sprintf("%s: url is required for provider static", rpath))
			}
			if r.Credentials == "" {
				warnings = append(warnings, fmt.Sprintf("%s: no credentials prefix; push relies on an existing docker login", rpath))
			}
		case "":
			errs = append(errs, fmt.Sprintf("%s: provider is required", rpath))
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown provider %q (valid: ecr, static)", rpath, r.Provider))
		}
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return warnings, nil
}
