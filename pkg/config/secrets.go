package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abisalde/student-portal/pkg/logger"
)

var ErrSecretNotFound = errors.New("secret not found")

type SecretProvider interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// EnvironmentSecretProvider reads secrets from environment variables.
type EnvironmentSecretProvider struct{}

func (e *EnvironmentSecretProvider) GetSecret(_ context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	return value, nil
}

// FileSecretProvider reads one file per secret (e.g., Kubernetes or Docker secrets).
type FileSecretProvider struct {
	secretsDir string
}

func NewFileSecretProvider(secretsDir string) *FileSecretProvider {
	return &FileSecretProvider{secretsDir: secretsDir}
}

func (f *FileSecretProvider) GetSecret(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.secretsDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
		}
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ChainSecretProvider asks each provider in turn and returns the first hit.
type ChainSecretProvider []SecretProvider

func (c ChainSecretProvider) GetSecret(ctx context.Context, key string) (string, error) {
	for _, p := range c {
		value, err := p.GetSecret(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
}

// CachedSecretProvider wraps another provider with caching
type CachedSecretProvider struct {
	provider      SecretProvider
	cache         sync.Map
	cacheDuration time.Duration
	now           func() time.Time
}

type cachedSecret struct {
	value     string
	fetchedAt time.Time
}

func NewCachedSecretProvider(provider SecretProvider, cacheDuration time.Duration) *CachedSecretProvider {
	return &CachedSecretProvider{
		provider:      provider,
		cacheDuration: cacheDuration,
		now:           time.Now,
	}
}

func (c *CachedSecretProvider) GetSecret(ctx context.Context, key string) (string, error) {
	if cached, ok := c.cache.Load(key); ok {
		cs := cached.(cachedSecret)
		if c.now().Sub(cs.fetchedAt) < c.cacheDuration {
			return cs.value, nil
		}
	}

	value, err := c.provider.GetSecret(ctx, key)
	if err != nil {
		return "", err
	}

	c.cache.Store(key, cachedSecret{value: value, fetchedAt: c.now()})
	return value, nil
}

// Lookup returns the secret, or "" when no provider has it.
func Lookup(ctx context.Context, p SecretProvider, key string) (string, error) {
	value, err := p.GetSecret(ctx, key)
	if errors.Is(err, ErrSecretNotFound) {
		return "", nil
	}
	return value, err
}

// DefaultSecretProvider prefers mounted secret files and falls back to the environment.
// SECRETS_DIR overrides the mount point.
func DefaultSecretProvider() SecretProvider {
	dir := os.Getenv("SECRETS_DIR")
	if dir == "" {
		if _, err := os.Stat("/var/run/secrets/kubernetes.io"); err == nil {
			dir = "/var/run/secrets/app"
		}
	}

	if dir != "" {
		logger.Info("using file-based secrets", zap.String("dir", dir))
		return NewCachedSecretProvider(ChainSecretProvider{NewFileSecretProvider(dir), &EnvironmentSecretProvider{}}, time.Hour)
	}

	logger.Debug("using environment variables for secrets")
	return &EnvironmentSecretProvider{}
}
