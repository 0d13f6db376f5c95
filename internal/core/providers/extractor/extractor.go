// Package extractor defines the feature extraction contract: embedding
// vectors for both namespaces plus a perceptual hash for images. Providers
// must be deterministic: identical input yields identical output.
package extractor

import (
	"context"
	"fmt"
	"sync"

	platformerrors "trulogo-server-go/internal/platform/errors"
	"trulogo-server-go/internal/utils"
)

// Vector is a namespace-scoped embedding vector.
type Vector = []float32

// Config carries provider construction parameters.
type Config struct {
	Type            string  `yaml:"type"`
	ModelName       string  `yaml:"model_name"`
	VisualModelName string  `yaml:"visual_model_name"`
	BaseURL         string  `yaml:"url"`
	APIKey          string  `yaml:"api_key"`
	Dimensions      int     `yaml:"dimensions"`
}

// Provider produces embeddings and perceptual hashes. EmbedImage and
// PerceptualHash fail with an extraction-kind error on undecodable input;
// that failure is fatal for the enclosing assessment.
type Provider interface {
	EmbedImage(ctx context.Context, data []byte) (Vector, error)
	EmbedText(ctx context.Context, text string) (Vector, error)
	// EmbedTextAsVisualConcept projects text into the image namespace for
	// zero-shot concept matching.
	EmbedTextAsVisualConcept(ctx context.Context, text string) (Vector, error)
	PerceptualHash(data []byte) (string, error)
	Initialize() error
	Cleanup() error
}

// Factory constructs a provider from its config.
type Factory func(config *Config, logger *utils.Logger) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a provider type available to Create. Called from provider
// package init functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Create builds and initializes the provider named by config.Type.
func Create(config *Config, logger *utils.Logger) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[config.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, platformerrors.New(platformerrors.KindConfig, "extractor.create",
			fmt.Sprintf("unknown extractor provider type %q", config.Type))
	}

	provider, err := factory(config, logger)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "extractor.create",
			"failed to construct extractor provider", err)
	}
	if err := provider.Initialize(); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "extractor.create",
			"failed to initialize extractor provider", err)
	}
	return provider, nil
}
