// Package awsx loads the AWS SDK configuration shared by the SMS sender and
// the export uploader.
package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Options selects region, credentials and an optional endpoint override
// (LocalStack, MinIO). Empty keys fall back to the SDK default chain.
type Options struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// loadDefaultConfig is a seam for testing config.LoadDefaultConfig.
var loadDefaultConfig = config.LoadDefaultConfig

func Load(ctx context.Context, o Options) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}
	if o.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(o.Endpoint))
	}

	cfg, err := loadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
