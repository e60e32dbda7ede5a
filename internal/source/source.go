package source

import (
	"context"
	"fmt"
	"log/slog"

	"NewsDispatch/internal/domain"
	"NewsDispatch/internal/ports"
)

// Provider is a named upstream news implementation (NewsAPI, etc.).
type Provider interface {
	Name() string
	FetchLatest(ctx context.Context) ([]domain.Article, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(provider Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[provider.Name()] = provider
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if provider, ok := r.providers[name]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("provider %s is not registered", name)
}

// RegistrySource implements ArticleSource by delegating to the provider
// selected in configuration.
type RegistrySource struct {
	registry *Registry
	provider string
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*RegistrySource)(nil)

// NewRegistrySource wires the registry with the configured provider name.
func NewRegistrySource(registry *Registry, provider string, log *slog.Logger) *RegistrySource {
	return &RegistrySource{
		registry: registry,
		provider: provider,
		logger:   log,
	}
}

// FetchLatest resolves the configured provider and pulls its latest batch.
func (s *RegistrySource) FetchLatest(ctx context.Context) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("provider registry is not configured")
	}

	provider, err := s.registry.Resolve(s.provider)
	if err != nil {
		return nil, err
	}

	articles, err := provider.FetchLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", s.provider, err)
	}

	s.debug("provider produced articles", "provider", s.provider, "count", len(articles))
	return articles, nil
}

func (s *RegistrySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
