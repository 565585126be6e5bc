// Package registry resolves registry endpoints and short-lived push
// credentials. Image bytes never flow through here — pushes go through the
// docker client — this package only answers "where do I push and as whom".
package registry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/harborline/shipgate/src/config"
)

// Credentials is a resolved registry login.
type Credentials struct {
	Endpoint string // registry host the docker client logs into
	Username string
	Password string
}

// CredentialProvider exchanges long-lived configuration for registry
// credentials usable by the docker client.
type CredentialProvider interface {
	// Name identifies the provider for logs and summaries.
	Name() string

	// Credentials returns the endpoint and a login valid for pushes.
	Credentials(ctx context.Context) (*Credentials, error)
}

// NewProvider creates a credential provider from a registry config entry.
func NewProvider(rc config.RegistryConfig) (CredentialProvider, error) {
	switch rc.Provider {
	case "ecr":
		return NewECR(rc.Name, rc.Region, rc.Credentials), nil
	case "static":
		return NewStatic(rc.Name, rc.URL, rc.Credentials), nil
	default:
		return nil, fmt.Errorf("registry: unsupported provider %q (valid: ecr, static)", rc.Provider)
	}
}

// Static resolves credentials from environment variables using a prefix:
// prefix "HARBOR" reads HARBOR_USER / HARBOR_PASS. The endpoint is fixed
// by configuration.
type Static struct {
	name     string
	endpoint string
	prefix   string
}

// NewStatic creates a static env-credential provider.
func NewStatic(name, endpoint, prefix string) *Static {
	return &Static{name: name, endpoint: endpoint, prefix: prefix}
}

func (s *Static) Name() string {
	if s.name != "" {
		return s.name
	}
	return s.endpoint
}

func (s *Static) Credentials(_ context.Context) (*Credentials, error) {
	creds := &Credentials{Endpoint: s.endpoint}
	if s.prefix == "" {
		// No credentials configured — rely on an existing docker login.
		return creds, nil
	}

	p := strings.ToUpper(s.prefix)
	creds.Username = os.Getenv(p + "_USER")
	creds.Password = os.Getenv(p + "_PASS")
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("registry: %s_USER / %s_PASS not set", p, p)
	}
	return creds, nil
}
