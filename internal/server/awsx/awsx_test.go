package awsx

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLoad(t *testing.T, fn func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error)) {
	t.Helper()
	orig := loadDefaultConfig
	t.Cleanup(func() { loadDefaultConfig = orig })
	loadDefaultConfig = fn
}

func applied(t *testing.T, optFns []func(*config.LoadOptions) error) config.LoadOptions {
	t.Helper()
	var lo config.LoadOptions
	for _, fn := range optFns {
		require.NoError(t, fn(&lo))
	}
	return lo
}

func TestLoad_AppliesOptions(t *testing.T) {
	var lo config.LoadOptions
	stubLoad(t, func(_ context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		lo = applied(t, optFns)
		return aws.Config{Region: lo.Region}, nil
	})

	cfg, err := Load(context.Background(), Options{
		Region: "eu-west-1", AccessKey: "ak", SecretKey: "sk", Endpoint: "http://localhost:4566",
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.NotNil(t, lo.Credentials)
	assert.Equal(t, "http://localhost:4566", lo.BaseEndpoint)
}

func TestLoad_DefaultChain(t *testing.T) {
	var lo config.LoadOptions
	stubLoad(t, func(_ context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		lo = applied(t, optFns)
		return aws.Config{}, nil
	})

	_, err := Load(context.Background(), Options{Region: "us-east-1"})
	require.NoError(t, err)
	assert.Nil(t, lo.Credentials)
	assert.Empty(t, lo.BaseEndpoint)
}

func TestLoad_Error(t *testing.T) {
	stubLoad(t, func(context.Context, ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no profile")
	})

	_, err := Load(context.Background(), Options{Region: "us-east-1"})
	assert.ErrorContains(t, err, "no profile")
}
