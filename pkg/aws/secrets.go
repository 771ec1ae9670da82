package aws

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// DefaultSecretPrefix namespaces the storefront credentials in Secrets Manager.
const DefaultSecretPrefix = "storefront/"

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient resolves configuration keys such as JWT_SECRET to the string
// secret stored under <prefix><key>. Values are cached for the life of the
// process, so rotated credentials need a restart.
type SecretsClient struct {
	client secretsAPI
	prefix string
	cache  map[string]string
	mu     sync.RWMutex
}

func NewSecretsClient(cfg sdkaws.Config, prefix string) *SecretsClient {
	return newSecretsClient(secretsmanager.NewFromConfig(cfg), prefix)
}

func newSecretsClient(api secretsAPI, prefix string) *SecretsClient {
	if prefix == "" {
		prefix = DefaultSecretPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &SecretsClient{client: api, prefix: prefix, cache: make(map[string]string)}
}

// SecretID is the Secrets Manager id a configuration key is read from.
func (s *SecretsClient) SecretID(key string) string {
	return s.prefix + key
}

// GetSecret returns the value of key. A secret without a string value, for
// example a binary one, is an error.
func (s *SecretsClient) GetSecret(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	id := s.SecretID(key)
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(id)})
	if err != nil {
		return "", fmt.Errorf("read %s secret %s: %w", key, id, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("%s secret %s has no string value", key, id)
	}

	s.mu.Lock()
	s.cache[key] = *out.SecretString
	s.mu.Unlock()
	return *out.SecretString, nil
}
