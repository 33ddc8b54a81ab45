package lambdasink

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
	"github.com/akave-ai/logwatch/internal/storage"
)

const typeName = "lambda"

func init() {
	sinks.Register(&Factory{})
}

// Factory creates async function invocation sinks. Registers as "lambda".
type Factory struct{}

func (f *Factory) Name() string {
	return typeName
}

func (f *Factory) ConfigSpec() sinks.SinkTypeInfo {
	return sinks.SinkTypeInfo{
		Type:        typeName,
		Mode:        sinks.Dispatch,
		Description: "Invokes a function asynchronously (InvocationType=Event) with the raw request as payload. Success means accepted for processing.",
		Fields: []sinks.ConfigField{
			{Name: "function_name", Type: "string", Required: true, Description: "Function name or ARN", Example: "logwatch-ingest"},
			{Name: "region", Type: "string", Required: false, Description: "AWS region", Example: "us-east-1"},
			{Name: "endpoint", Type: "string", Required: false, Description: "Custom endpoint, e.g. a local emulator", Example: "http://localhost:3001"},
			{Name: "access_key", Type: "string", Required: false, Description: "Static access key; the default credential chain is used when empty"},
			{Name: "secret_key", Type: "string", Required: false, Description: "Static secret key"},
			{Name: "qualifier", Type: "string", Required: false, Description: "Version or alias to invoke", Example: "live"},
		},
	}
}

func (f *Factory) ValidateConfig(cfg sinks.Config) error {
	return cfg.Require(typeName, "function_name")
}

func (f *Factory) Create(ctx context.Context, cfg sinks.Config) (sinks.Sink, error) {
	awsCfg, err := storage.AWSConfig(ctx, cfg.String("region", ""), cfg.String("access_key", ""), cfg.String("secret_key", ""))
	if err != nil {
		return nil, err
	}
	endpoint := cfg.String("endpoint", "")
	client := lambda.NewFromConfig(awsCfg, func(o *lambda.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return New(client, cfg.String("function_name", ""), cfg.String("qualifier", "")), nil
}
