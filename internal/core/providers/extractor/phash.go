package extractor

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	platformerrors "trulogo-server-go/internal/platform/errors"
)

// DHash computes a 64-bit difference hash: the image is scaled to 9x8
// grayscale and each bit records whether a pixel is brighter than its right
// neighbor. Visually similar images produce hashes with a small Hamming
// distance.
func DHash(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", platformerrors.Wrap(platformerrors.KindExtraction, "extractor.phash",
			"decode image for perceptual hash", err)
	}

	const (
		hashW = 9
		hashH = 8
	)
	small := image.NewGray(image.Rect(0, 0, hashW, hashH))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	var hash uint64
	for y := 0; y < hashH; y++ {
		for x := 0; x < hashW-1; x++ {
			hash <<= 1
			if small.GrayAt(x, y).Y > small.GrayAt(x+1, y).Y {
				hash |= 1
			}
		}
	}
	return fmt.Sprintf("%016x", hash), nil
}
