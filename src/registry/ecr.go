package registry

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/rs/zerolog/log"
)

// ecrClient is the subset of the ECR API the provider uses.
type ecrClient interface {
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

// ECR exchanges the AWS credential chain (access key pair, instance role,
// SSO) for a short-lived docker login against the account's ECR endpoint.
type ECR struct {
	name   string
	region string
	prefix string    // env prefix for an explicit access key pair, optional
	client ecrClient // lazily constructed unless injected in tests
}

// NewECR creates an ECR credential provider for a region. A non-empty
// prefix pins the access key pair to PREFIX_ACCESS_KEY / PREFIX_SECRET_KEY
// instead of the default AWS credential chain.
func NewECR(name, region, prefix string) *ECR {
	return &ECR{name: name, region: region, prefix: prefix}
}

func (e *ECR) Name() string {
	if e.name != "" {
		return e.name
	}
	return "ecr/" + e.region
}

func (e *ECR) Credentials(ctx context.Context) (*Credentials, error) {
	if e.client == nil {
		opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(e.region)}
		if e.prefix != "" {
			p := strings.ToUpper(e.prefix)
			accessKey := os.Getenv(p + "_ACCESS_KEY")
			secretKey := os.Getenv(p + "_SECRET_KEY")
			if accessKey == "" || secretKey == "" {
				return nil, fmt.Errorf("registry: %s_ACCESS_KEY / %s_SECRET_KEY not set", p, p)
			}
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("registry: loading aws config: %w", err)
		}
		e.client = ecr.NewFromConfig(cfg)
	}

	log.Debug().Str("region", e.region).Msg("requesting ecr authorization token")

	out, err := e.client.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return nil, fmt.Errorf("registry: ecr authorization: %w", err)
	}
	if len(out.AuthorizationData) == 0 {
		return nil, fmt.Errorf("registry: ecr returned no authorization data")
	}

	auth := out.AuthorizationData[0]
	if auth.AuthorizationToken == nil || auth.ProxyEndpoint == nil {
		return nil, fmt.Errorf("registry: ecr authorization data incomplete")
	}

	user, pass, err := decodeAuthToken(*auth.AuthorizationToken)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		Endpoint: strings.TrimPrefix(*auth.ProxyEndpoint, "https://"),
		Username: user,
		Password: pass,
	}, nil
}

// decodeAuthToken splits the base64 "user:password" token ECR returns.
func decodeAuthToken(token string) (user, pass string, err error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("registry: decoding ecr token: %w", err)
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", fmt.Errorf("registry: malformed ecr token")
	}
	return user, pass, nil
}
