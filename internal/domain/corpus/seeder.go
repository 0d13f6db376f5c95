// Package corpus loads the reference trademark corpus into the similarity
// index at startup. Seeding is an administrative path; it never runs inside
// a request.
package corpus

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trulogo-server-go/internal/core/providers/extractor"
	"trulogo-server-go/internal/domain/index"
	platformerrors "trulogo-server-go/internal/platform/errors"
	"trulogo-server-go/internal/utils"
)

// Manifest is the YAML corpus description.
type Manifest struct {
	Trademarks []string `yaml:"trademarks"`
}

// DefaultTrademarks seeds a minimal demo corpus when no manifest is
// configured.
var DefaultTrademarks = []string{"Starbucks", "Nike", "Apple", "Google", "Microsoft"}

// Adder is the index write contract the seeder needs.
type Adder interface {
	Add(ns index.Namespace, key string, vector []float32, metadata map[string]string) error
}

// Seeder embeds each trademark and writes it into both namespaces.
type Seeder struct {
	extractor extractor.Provider
	adder     Adder
	logger    *utils.Logger
}

func NewSeeder(provider extractor.Provider, adder Adder, logger *utils.Logger) *Seeder {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &Seeder{extractor: provider, adder: adder, logger: logger}
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, platformerrors.Wrap(platformerrors.KindConfig, "corpus.manifest",
			"read corpus manifest", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, platformerrors.Wrap(platformerrors.KindConfig, "corpus.manifest",
			"parse corpus manifest", err)
	}
	return m, nil
}

// Seed ingests every trademark name. Each name lands twice: its text
// embedding in the text namespace and its visual-concept embedding in the
// image namespace, so a wordless logo can still hit a name entry.
func (s *Seeder) Seed(ctx context.Context, trademarks []string) error {
	if len(trademarks) == 0 {
		trademarks = DefaultTrademarks
	}

	for _, name := range trademarks {
		textVec, err := s.extractor.EmbedText(ctx, name)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindBootstrap, "corpus.seed",
				fmt.Sprintf("embed trademark %q", name), err)
		}
		if err := s.adder.Add(index.NamespaceText, name, textVec,
			map[string]string{"name": name, "type": "text"}); err != nil {
			return err
		}

		conceptVec, err := s.extractor.EmbedTextAsVisualConcept(ctx, name)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindBootstrap, "corpus.seed",
				fmt.Sprintf("embed visual concept %q", name), err)
		}
		if err := s.adder.Add(index.NamespaceImage, name, conceptVec,
			map[string]string{"name": name, "type": "text_concept"}); err != nil {
			return err
		}

		if s.logger != nil {
			s.logger.DebugTag("CORPUS", "seeded trademark %q", name)
		}
	}

	if s.logger != nil {
		s.logger.InfoTag("CORPUS", "seeded %d trademarks", len(trademarks))
	}
	return nil
}
