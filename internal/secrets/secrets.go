// Package secrets resolves workspace token references from the environment
// or AWS Secrets Manager.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Reference prefixes understood by Resolve. Anything else is a literal.
const (
	envPrefix            = "env:"
	secretsManagerPrefix = "secretsmanager:"
)

// SecretsManagerAPI is the subset of the AWS Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver resolves token references. The AWS client is constructed lazily on
// first use and reused.
type Resolver struct {
	mu       sync.Mutex
	smClient SecretsManagerAPI
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSecretsManagerClient sets a custom Secrets Manager client (useful for testing).
func WithSecretsManagerClient(c SecretsManagerAPI) ResolverOption {
	return func(r *Resolver) { r.smClient = c }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve turns a token reference into its value. Supported forms:
//
//	literal-value
//	env:NAME
//	secretsmanager:NAME_OR_ARN
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, envPrefix):
		name := strings.TrimPrefix(ref, envPrefix)
		v := os.Getenv(name)
		if v == "" {
			return "", fmt.Errorf("secrets: environment variable %s is not set", name)
		}
		return v, nil

	case strings.HasPrefix(ref, secretsManagerPrefix):
		id := strings.TrimPrefix(ref, secretsManagerPrefix)
		client, err := r.getClient(ctx)
		if err != nil {
			return "", err
		}
		out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &id})
		if err != nil {
			return "", fmt.Errorf("secrets: getting secret %s: %w", id, err)
		}
		if out.SecretString == nil || *out.SecretString == "" {
			return "", fmt.Errorf("secrets: secret %s has no string value", id)
		}
		return *out.SecretString, nil

	default:
		return ref, nil
	}
}

func (r *Resolver) getClient(ctx context.Context) (SecretsManagerAPI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.smClient != nil {
		return r.smClient, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets: loading AWS config: %w", err)
	}
	r.smClient = secretsmanager.NewFromConfig(cfg)
	return r.smClient, nil
}
