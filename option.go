package lifecycle

import (
	"github.com/veriflow/lifecycle/model"
	"github.com/veriflow/lifecycle/policy"
	"github.com/veriflow/lifecycle/service/dao"
	"github.com/veriflow/lifecycle/service/event"
	"github.com/veriflow/lifecycle/service/messaging"
	"github.com/veriflow/lifecycle/service/moderation"
	"github.com/veriflow/lifecycle/service/sanction"
	"github.com/veriflow/lifecycle/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the Service façade.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithPolicies sets the provider policy registry.
func WithPolicies(registry *policy.Registry) Option {
	return func(s *Service) { s.policies = registry }
}

// WithSigningKey sets the key approval tokens are derived from.
func WithSigningKey(key []byte) Option {
	return func(s *Service) { s.signingKey = key }
}

// WithSigningKeyResource loads the signing key from a secret resource URL.
func WithSigningKeyResource(URL, key string) Option {
	return func(s *Service) {
		s.signingKeyURL = URL
		s.signingKeySecret = key
	}
}

// WithTokenSigner sets a fully constructed token signer.
func WithTokenSigner(signer *sanction.TokenSigner) Option {
	return func(s *Service) { s.signer = signer }
}

// WithArtifactStore sets the artifact store shared by all services.
func WithArtifactStore(artifacts dao.Store[string, model.Artifact]) Option {
	return func(s *Service) { s.artifacts = artifacts }
}

// WithSanctionStore sets the sanction store.
func WithSanctionStore(sanctions dao.Store[string, sanction.Sanction]) Option {
	return func(s *Service) { s.sanctionStore = sanctions }
}

// WithModerationQueue sets the queue transition events are published to.
func WithModerationQueue(queue messaging.Queue[event.Event[moderation.Entry]]) Option {
	return func(s *Service) { s.moderationBus = queue }
}

// WithChainQueue sets the queue version-opened events are published to.
func WithChainQueue(queue messaging.Queue[event.Event[model.Artifact]]) Option {
	return func(s *Service) { s.chainBus = queue }
}

// WithSanctionQueue sets the queue sanction events are published to.
func WithSanctionQueue(queue messaging.Queue[event.Event[sanction.Sanction]]) Option {
	return func(s *Service) { s.sanctionEvents = queue }
}

// WithTracing configures OpenTelemetry tracing with the stdout exporter; an
// empty outputFile writes to os.Stdout. Safe to call multiple times, the
// first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing with a custom span
// exporter (OTLP, Jaeger, Zipkin...).
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
