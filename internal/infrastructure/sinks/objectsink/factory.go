package objectsink

import (
	"context"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
	"github.com/akave-ai/logwatch/internal/storage"
)

const typeName = "s3"

func init() {
	sinks.Register(&Factory{})
}

// Factory creates S3 object sinks. Registers as "s3".
type Factory struct{}

func (f *Factory) Name() string {
	return typeName
}

func (f *Factory) ConfigSpec() sinks.SinkTypeInfo {
	return sinks.SinkTypeInfo{
		Type:        typeName,
		Mode:        sinks.Durable,
		Description: "Stores each accepted event as <uuid>.json in an S3 or S3-compatible bucket.",
		Fields: []sinks.ConfigField{
			{Name: "bucket", Type: "string", Required: true, Description: "Target bucket; never created by logwatch", Example: "logwatch-events"},
			{Name: "region", Type: "string", Required: false, Description: "AWS region", Example: "us-east-1"},
			{Name: "endpoint", Type: "string", Required: false, Description: "Custom endpoint for S3-compatible stores", Example: "https://o3.akave.xyz"},
			{Name: "access_key", Type: "string", Required: false, Description: "Static access key; the default credential chain is used when empty"},
			{Name: "secret_key", Type: "string", Required: false, Description: "Static secret key"},
			{Name: "path_style", Type: "bool", Required: false, Description: "Use path-style addressing", Example: "true"},
			{Name: "prefix", Type: "string", Required: false, Description: "Key prefix prepended to <uuid>.json", Example: "events/"},
			{Name: "check_bucket", Type: "bool", Required: false, Description: "Verify the bucket is reachable at startup", Example: "true"},
		},
	}
}

func (f *Factory) ValidateConfig(cfg sinks.Config) error {
	return cfg.Require(typeName, "bucket")
}

func (f *Factory) Create(ctx context.Context, cfg sinks.Config) (sinks.Sink, error) {
	client, err := storage.NewS3Client(ctx, storage.S3Config{
		Bucket:    cfg.String("bucket", ""),
		Region:    cfg.String("region", ""),
		Endpoint:  cfg.String("endpoint", ""),
		AccessKey: cfg.String("access_key", ""),
		SecretKey: cfg.String("secret_key", ""),
		PathStyle: cfg.Bool("path_style", false),
	})
	if err != nil {
		return nil, err
	}
	if cfg.Bool("check_bucket", false) {
		if err := client.CheckBucket(ctx); err != nil {
			return nil, err
		}
	}
	return New(client, cfg.String("prefix", "")), nil
}
