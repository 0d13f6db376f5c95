// Package variants produces mock redesign candidates for a risky logo. A
// production deployment would call a diffusion model here; these transforms
// keep the API shape while staying fully in-process.
package variants

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// Variant is one generated alternative.
type Variant struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	ImageB64    string `json:"image_b64"`
}

// Generator creates alternatives from the original image. The risk score is
// accepted for parity with the collaborator contract; generation itself is
// unconditional and never feeds back into scoring.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns the candidate redesigns for the uploaded image.
func (g *Generator) Generate(data []byte, riskScore float64) ([]Variant, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image for variant generation: %w", err)
	}

	grayscale, err := encodeB64(toGrayscale(src))
	if err != nil {
		return nil, err
	}
	inverted, err := encodeB64(toInverted(src))
	if err != nil {
		return nil, err
	}

	return []Variant{
		{
			Type:        "Minimalist",
			Description: "A simplified, cleaner version to reduce visual clutter and similarity.",
			ImageB64:    grayscale,
		},
		{
			Type:        "Inverted Contrast",
			Description: "High contrast variation with inverted colors for distinctiveness.",
			ImageB64:    inverted,
		},
	}, nil
}

func toGrayscale(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			v := uint8((299*(r>>8) + 587*(g>>8) + 114*(bl>>8)) / 1000)
			dst.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return dst
}

func toInverted(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			dst.SetRGBA(x, y, color.RGBA{
				R: 255 - uint8(r>>8),
				G: 255 - uint8(g>>8),
				B: 255 - uint8(bl>>8),
				A: 255,
			})
		}
	}
	return dst
}

func encodeB64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode variant: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
