package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const defaultRegion = "us-east-1"

// AWSConfig returns an aws.Config for region. Static credentials are used
// when accessKey is set; otherwise the environment, shared config and
// instance role are consulted.
func AWSConfig(ctx context.Context, region, accessKey, secretKey string) (aws.Config, error) {
	if region == "" {
		region = defaultRegion
	}
	if accessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
		return aws.Config{
			Region:      region,
			Credentials: aws.NewCredentialsCache(creds),
		}, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
