package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/JerryShih01/MEDIG-8/internal/post"
)

// Rasterizer executes layout instructions onto an RGBA canvas and encodes
// the result. It also implements Measurer with the real font metrics, so
// layout and rasterization agree on widths.
type Rasterizer struct {
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

// NewRasterizer builds a rasterizer from the embedded Go fonts, or from a
// single TTF at fontPath when set. A CJK-capable font file is needed for the
// target locale's glyphs; layout metrics work either way.
func NewRasterizer(fontPath string) (*Rasterizer, error) {
	if fontPath != "" {
		data, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", fontPath, err)
		}
		return &Rasterizer{regular: f, bold: f, faces: make(map[faceKey]font.Face)}, nil
	}

	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded bold font: %w", err)
	}
	return &Rasterizer{regular: regular, bold: bold, faces: make(map[faceKey]font.Face)}, nil
}

// TableImage lays out and rasterizes a comparison table as a PNG. It is pure
// with respect to its input: the same table always yields identical bytes.
func (r *Rasterizer) TableImage(t post.ComparisonTable) ([]byte, error) {
	ops := layoutTable(t, r)
	img := r.execute(ops)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode table image: %w", err)
	}
	return buf.Bytes(), nil
}

// Width implements Measurer using the rasterizer's own faces.
func (r *Rasterizer) Width(text string, style TextStyle) int {
	return font.MeasureString(r.face(style), text).Ceil()
}

func (r *Rasterizer) face(style TextStyle) font.Face {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := faceKey{size: style.Size, bold: style.Bold}
	if f, ok := r.faces[key]; ok {
		return f
	}
	src := r.regular
	if style.Bold {
		src = r.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    style.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// The parsed fonts are validated in NewRasterizer; face creation
		// from them does not fail for positive sizes.
		panic(err)
	}
	r.faces[key] = f
	return f
}

func (r *Rasterizer) execute(ops []Op) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize))
	for _, op := range ops {
		switch op.Kind {
		case OpFill:
			draw.Draw(img, op.Rect, image.NewUniform(op.Color), image.Point{}, draw.Src)
		case OpText:
			d := font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(op.Style.Color),
				Face: r.face(op.Style),
				Dot:  fixed.P(op.X, op.Y),
			}
			d.DrawString(op.Text)
		}
	}
	return img
}
