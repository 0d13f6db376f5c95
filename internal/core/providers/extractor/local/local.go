// Package local implements a deterministic, fully in-process extractor.
// Embeddings are hash projections of the input, not learned features, so
// similarity search degenerates to exact-content matching. It stands in for
// a real encoder during development, seeding and tests.
package local

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"
	"math"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"trulogo-server-go/internal/core/providers/extractor"
	platformerrors "trulogo-server-go/internal/platform/errors"
	"trulogo-server-go/internal/utils"
)

const defaultDimensions = 128

func init() {
	extractor.Register("local", NewProvider)
}

// Provider derives unit vectors from a SHA-256 expansion of the input.
type Provider struct {
	dims   int
	logger *utils.Logger
}

func NewProvider(config *extractor.Config, logger *utils.Logger) (extractor.Provider, error) {
	dims := config.Dimensions
	if dims <= 0 {
		dims = defaultDimensions
	}
	return &Provider{dims: dims, logger: logger}, nil
}

func (p *Provider) Initialize() error { return nil }
func (p *Provider) Cleanup() error    { return nil }

func (p *Provider) EmbedImage(ctx context.Context, data []byte) (extractor.Vector, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindExtraction, "extractor.embed_image",
			"undecodable image input", err)
	}
	return p.project("image:", data), nil
}

func (p *Provider) EmbedText(ctx context.Context, text string) (extractor.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, platformerrors.New(platformerrors.KindExtraction, "extractor.embed_text",
			"empty text input")
	}
	return p.project("text:", []byte(strings.ToLower(text))), nil
}

func (p *Provider) EmbedTextAsVisualConcept(ctx context.Context, text string) (extractor.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, platformerrors.New(platformerrors.KindExtraction, "extractor.embed_visual_concept",
			"empty text input")
	}
	// Distinct prefix keeps the projection inside the image namespace
	// separate from plain text embeddings of the same string.
	return p.project("visual:", []byte(strings.ToLower(text))), nil
}

func (p *Provider) PerceptualHash(data []byte) (string, error) {
	return extractor.DHash(data)
}

// project expands the payload hash into a deterministic unit vector by
// chaining SHA-256 blocks until the dimension count is filled.
func (p *Provider) project(prefix string, payload []byte) extractor.Vector {
	vec := make(extractor.Vector, p.dims)

	block := sha256.Sum256(append([]byte(prefix), payload...))
	var norm float64
	for i := 0; i < p.dims; i++ {
		if i%8 == 0 && i > 0 {
			block = sha256.Sum256(block[:])
		}
		bits := binary.BigEndian.Uint32(block[(i%8)*4 : (i%8)*4+4])
		// Map to [-1, 1).
		v := float64(bits)/float64(math.MaxUint32)*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
