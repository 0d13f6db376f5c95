// Package heatmap renders a saliency-style overlay for an uploaded logo.
// The output is purely presentational and never feeds the risk decision.
package heatmap

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxSide caps the working resolution; gradients on a thumbnail are
// indistinguishable in the rendered overlay.
const maxSide = 256

// Render returns a base64-encoded PNG overlaying a luminance-gradient
// heatmap on the source image.
func Render(data []byte) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image for heatmap: %w", err)
	}

	scaled := downscale(src)
	bounds := scaled.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	lum := make([][]float64, h)
	for y := 0; y < h; y++ {
		lum[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			r, g, b, _ := scaled.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			lum[y][x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}

	grad := make([][]float64, h)
	maxGrad := 1.0
	for y := 0; y < h; y++ {
		grad[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			gx, gy := 0.0, 0.0
			if x+1 < w {
				gx = lum[y][x+1] - lum[y][x]
			}
			if y+1 < h {
				gy = lum[y+1][x] - lum[y][x]
			}
			g := gx*gx + gy*gy
			grad[y][x] = g
			if g > maxGrad {
				maxGrad = g
			}
		}
	}

	out := image.NewRGBA(bounds)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			heat := grad[y][x] / maxGrad
			r, g, b, _ := scaled.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.SetRGBA(bounds.Min.X+x, bounds.Min.Y+y, blend(
				color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255},
				heatColor(heat),
			))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return "", fmt.Errorf("encode heatmap: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func downscale(src image.Image) image.Image {
	b := src.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return src
	}
	w, h := b.Dx(), b.Dy()
	if w > h {
		h = h * maxSide / w
		w = maxSide
	} else {
		w = w * maxSide / h
		h = maxSide
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// heatColor maps intensity to a cold-to-hot ramp.
func heatColor(v float64) color.RGBA {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return color.RGBA{
		R: uint8(255 * v),
		B: uint8(255 * (1 - v)),
		A: 255,
	}
}

// blend mixes 60% source with 40% heat.
func blend(src, heat color.RGBA) color.RGBA {
	mix := func(a, b uint8) uint8 {
		return uint8((int(a)*6 + int(b)*4) / 10)
	}
	return color.RGBA{
		R: mix(src.R, heat.R),
		G: mix(src.G, heat.G),
		B: mix(src.B, heat.B),
		A: 255,
	}
}
