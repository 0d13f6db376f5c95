// Package openai implements the extractor contract against any
// OpenAI-compatible embeddings endpoint. Text embeddings go to the text
// model; image payloads and visual-concept text go to a CLIP-style visual
// model served behind the same API shape.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	openai "github.com/sashabaranov/go-openai"

	"trulogo-server-go/internal/core/providers/extractor"
	platformerrors "trulogo-server-go/internal/platform/errors"
	"trulogo-server-go/internal/utils"
)

func init() {
	extractor.Register("openai", NewProvider)
}

// Provider calls a remote embeddings service. The perceptual hash is always
// computed locally; it never needs the model.
type Provider struct {
	config *extractor.Config
	client *openai.Client
	logger *utils.Logger
}

func NewProvider(config *extractor.Config, logger *utils.Logger) (extractor.Provider, error) {
	return &Provider{config: config, logger: logger}, nil
}

func (p *Provider) Initialize() error {
	if p.config.APIKey == "" {
		return platformerrors.New(platformerrors.KindConfig, "extractor.openai.init",
			"missing API key")
	}

	clientConfig := openai.DefaultConfig(p.config.APIKey)
	if p.config.BaseURL != "" {
		clientConfig.BaseURL = p.config.BaseURL
	}
	p.client = openai.NewClientWithConfig(clientConfig)
	return nil
}

func (p *Provider) Cleanup() error { return nil }

func (p *Provider) EmbedImage(ctx context.Context, data []byte) (extractor.Vector, error) {
	// Reject undecodable input locally so corrupt uploads fail fast and
	// deterministically instead of depending on remote behavior.
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindExtraction, "extractor.embed_image",
			"undecodable image input", err)
	}

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	return p.embed(ctx, payload, p.visualModel(), "extractor.embed_image")
}

func (p *Provider) EmbedText(ctx context.Context, text string) (extractor.Vector, error) {
	return p.embed(ctx, text, p.config.ModelName, "extractor.embed_text")
}

func (p *Provider) EmbedTextAsVisualConcept(ctx context.Context, text string) (extractor.Vector, error) {
	return p.embed(ctx, text, p.visualModel(), "extractor.embed_visual_concept")
}

func (p *Provider) PerceptualHash(data []byte) (string, error) {
	return extractor.DHash(data)
}

func (p *Provider) visualModel() string {
	if p.config.VisualModelName != "" {
		return p.config.VisualModelName
	}
	return p.config.ModelName
}

func (p *Provider) embed(ctx context.Context, input, model, op string) (extractor.Vector, error) {
	if input == "" {
		return nil, platformerrors.New(platformerrors.KindExtraction, op, "empty input")
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{input},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindExtraction, op,
			"embeddings request failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, platformerrors.New(platformerrors.KindExtraction, op,
			"no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}
