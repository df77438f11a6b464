package render

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Composite scales the source image to cover the square canvas, centers it,
// and fills the background first so the output is gap-free for any source
// aspect ratio. The output is always CanvasSize × CanvasSize. When the
// source cannot be decoded the original bytes are returned unchanged; this
// path is best-effort and never fails outward.
func Composite(src []byte) []byte {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return src
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return src
	}

	// Cover fit: the larger scale factor fills the canvas and crops overflow.
	scale := float64(CanvasSize) / float64(w)
	if s := float64(CanvasSize) / float64(h); s > scale {
		scale = s
	}
	dw := int(float64(w)*scale + 0.5)
	dh := int(float64(h)*scale + 0.5)
	x0 := (CanvasSize - dw) / 2
	y0 := (CanvasSize - dh) / 2

	dst := image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+dw, y0+dh), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return src
	}
	return buf.Bytes()
}
