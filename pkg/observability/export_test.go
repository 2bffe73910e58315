package observability

import "go.opentelemetry.io/otel/sdk/resource"

// ExportBuildResource exposes buildResource for external tests.
func ExportBuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// ExportSamplerDescription returns the description of the sampler chosen for cfg.
func ExportSamplerDescription(cfg Config) string {
	return sampler(cfg).Description()
}
