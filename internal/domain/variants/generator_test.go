package variants

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func srcPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeVariant(t *testing.T, v Variant) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(v.ImageB64)
	if err != nil {
		t.Fatalf("variant %s is not valid base64: %v", v.Type, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("variant %s is not a decodable image: %v", v.Type, err)
	}
	return img
}

func TestGenerateProducesTwoVariants(t *testing.T) {
	g := NewGenerator()

	variants, err := g.Generate(srcPNG(t), 90)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}
	if variants[0].Type != "Minimalist" || variants[1].Type != "Inverted Contrast" {
		t.Fatalf("unexpected variant types: %+v", variants)
	}

	gray := decodeVariant(t, variants[0])
	r, g2, b, _ := gray.At(0, 0).RGBA()
	if r != g2 || g2 != b {
		t.Fatalf("minimalist variant should be grayscale, got rgb(%d,%d,%d)", r>>8, g2>>8, b>>8)
	}

	inv := decodeVariant(t, variants[1])
	ir, _, ib, _ := inv.At(0, 0).RGBA()
	if uint8(ir>>8) != 55 || uint8(ib>>8) != 215 {
		t.Fatalf("inverted variant channels wrong: r=%d b=%d", ir>>8, ib>>8)
	}
}

func TestGenerateUndecodableInput(t *testing.T) {
	g := NewGenerator()
	if _, err := g.Generate([]byte("nope"), 50); err == nil {
		t.Fatalf("expected error for undecodable input")
	}
}
