package post

import (
	"bytes"
	"image"
	"image/png"
	"sync"
)

var (
	placeholderOnce sync.Once
	placeholderPNG  []byte
)

// PlaceholderPNG returns the fixed 1×1 transparent PNG substituted when
// illustration synthesis fails. The bytes are encoded once; each call gets
// its own copy so a caller mutating the slice cannot corrupt later calls.
func PlaceholderPNG() []byte {
	placeholderOnce.Do(func() {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
			// Encoding a 1×1 RGBA into a bytes.Buffer cannot fail.
			panic(err)
		}
		placeholderPNG = buf.Bytes()
	})
	return append([]byte(nil), placeholderPNG...)
}
