package mark

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	platformerrors "trulogo-server-go/internal/platform/errors"
	"trulogo-server-go/internal/utils"
)

// ExtractMetadata derives the structural metadata of an image mark. On any
// decode failure it returns the zero (default) record together with a
// metadata-kind error; callers are expected to degrade, not abort.
func ExtractMetadata(data []byte, filename string) (StructuralMetadata, error) {
	if len(data) == 0 {
		return StructuralMetadata{}, platformerrors.New(
			platformerrors.KindMetadata, "metadata.extract", "empty image payload")
	}

	sizeKB := utils.Round2(float64(len(data)) / 1024)

	// SVG is vector data: no pixel dimensions to report.
	if looksLikeSVG(data) {
		return StructuralMetadata{
			Filename:   filename,
			Format:     "SVG",
			FileSizeKB: sizeKB,
		}, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return StructuralMetadata{}, platformerrors.Wrap(
			platformerrors.KindMetadata, "metadata.extract", "decode image config", err)
	}

	aspect := 0.0
	if cfg.Height > 0 {
		aspect = utils.Round2(float64(cfg.Width) / float64(cfg.Height))
	}

	return StructuralMetadata{
		Filename:      filename,
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        strings.ToUpper(format),
		FileSizeKB:    sizeKB,
		AspectRatio:   aspect,
		DominantColor: dominantColor(data),
	}, nil
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(strings.ToLower(string(head)), "<svg")
}

// dominantColor scales the image down to a single pixel, which averages the
// palette into one representative color.
func dominantColor(data []byte) string {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "#000000"
	}

	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	r, g, b, _ := dst.At(0, 0).RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
