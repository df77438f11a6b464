package pipeline

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JerryShih01/MEDIG-8/internal/post"
	"github.com/JerryShih01/MEDIG-8/internal/render"
)

// product is the filename prefix for exported artifacts.
const product = "medig8"

// Artifact kinds used in export filenames.
const (
	KindPost  = "post"
	KindTable = "table"
)

// Artifacts renders the two export images for one generated post lazily, on
// demand. Rendering is pure and repeatable; concurrent duplicate requests
// share one render via singleflight. No external call is ever re-invoked
// here.
type Artifacts struct {
	post   *post.GeneratedPost
	engine *render.Rasterizer
	group  singleflight.Group
}

// NewArtifacts wraps a generated post with a render engine.
func NewArtifacts(p *post.GeneratedPost, engine *render.Rasterizer) *Artifacts {
	return &Artifacts{post: p, engine: engine}
}

// Composite returns the square cover-fit version of the illustration.
func (a *Artifacts) Composite() []byte {
	v, _, _ := a.group.Do(KindPost, func() (any, error) {
		return render.Composite(a.post.ImageData), nil
	})
	return v.([]byte)
}

// TableImage returns the rendered comparison-table image.
func (a *Artifacts) TableImage() ([]byte, error) {
	v, err, _ := a.group.Do(KindTable, func() (any, error) {
		return a.engine.TableImage(a.post.Content.ComparisonTable)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Filename builds the export filename pattern <product>-<kind>-<timestamp>.png.
func Filename(kind string, ts time.Time) string {
	return fmt.Sprintf("%s-%s-%d.png", product, kind, ts.Unix())
}
