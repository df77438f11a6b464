package pipeline

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JerryShih01/MEDIG-8/internal/core"
	"github.com/JerryShih01/MEDIG-8/internal/post"
)

// State enumerates the pipeline phases. Exactly one controller state exists
// at a time; Complete and Errored are stable until the next trigger.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateGeneratingContent
	StateGeneratingImage
	StateComplete
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateGeneratingContent:
		return "generating_content"
	case StateGeneratingImage:
		return "generating_image"
	case StateComplete:
		return "complete"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// active reports whether a pipeline run is in flight. Triggers arriving in
// an active state are rejected, never interleaved.
func (s State) active() bool {
	return s == StateSearching || s == StateGeneratingContent || s == StateGeneratingImage
}

// Controller owns the pipeline state machine, the current result list, and
// the single current-artifact slot. Both are replaced wholesale on each
// transition, never mutated in place, so no further locking is needed
// downstream.
type Controller struct {
	search  *SearchStage
	content *ContentStage
	illus   *IllustrationStage
	log     *zap.Logger

	mu      sync.Mutex
	state   State
	lastErr string
	results []post.SearchResult
	current *post.GeneratedPost
}

// NewController wires the three stages into one state machine.
func NewController(search *SearchStage, content *ContentStage, illus *IllustrationStage, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		search:  search,
		content: content,
		illus:   illus,
		log:     log.Named("pipeline"),
		state:   StateIdle,
	}
}

// State returns the current pipeline state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the human-readable message of the last failure, or ""
// when the controller is not in Errored.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Results returns a copy of the current candidate list.
func (c *Controller) Results() []post.SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]post.SearchResult, len(c.results))
	copy(out, c.results)
	return out
}

// Current returns the current artifact bundle, or nil.
func (c *Controller) Current() *post.GeneratedPost {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Search runs the search stage. It is legal from Idle, Complete, and
// Errored; while a run is active it returns ErrPipelineBusy without touching
// state. On success the result list is replaced wholesale and the controller
// reaches Complete — an empty list is a valid "no results" completion.
func (c *Controller) Search(ctx context.Context, topic string, from, to time.Time) ([]post.SearchResult, error) {
	if err := c.begin(StateSearching); err != nil {
		return nil, err
	}

	results, err := c.search.Search(ctx, topic, from, to)
	if err != nil {
		c.fail(err)
		return nil, err
	}

	c.mu.Lock()
	c.results = results
	c.current = nil
	c.setStateLocked(StateComplete)
	c.mu.Unlock()
	return c.Results(), nil
}

// Generate runs the two generation sub-stages for the identified candidate,
// strictly in order: content first, then illustration. The content stage can
// fail the run; the illustration stage cannot. On success the current
// artifact slot is replaced wholesale and the controller reaches Complete.
func (c *Controller) Generate(ctx context.Context, id string) (*post.GeneratedPost, error) {
	c.mu.Lock()
	if c.state.active() {
		c.mu.Unlock()
		return nil, core.ErrPipelineBusy
	}
	item, ok := c.findLocked(id)
	if !ok {
		c.mu.Unlock()
		return nil, core.ErrUnknownResult
	}
	c.current = nil
	c.setStateLocked(StateGeneratingContent)
	c.mu.Unlock()

	content, err := c.content.Generate(ctx, item)
	if err != nil {
		c.fail(err)
		return nil, err
	}

	c.mu.Lock()
	c.setStateLocked(StateGeneratingImage)
	c.mu.Unlock()

	imageData := c.illus.Generate(ctx, item.Title, item.Summary)
	generated := &post.GeneratedPost{
		Content:   content,
		ImageData: imageData,
		ImageURL:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageData),
	}

	c.mu.Lock()
	c.current = generated
	c.setStateLocked(StateComplete)
	c.mu.Unlock()
	return generated, nil
}

func (c *Controller) begin(next State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.active() {
		return core.ErrPipelineBusy
	}
	c.setStateLocked(next)
	return nil
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err.Error()
	c.setStateLocked(StateErrored)
}

func (c *Controller) setStateLocked(next State) {
	c.log.Debug("state transition",
		zap.Stringer("from", c.state),
		zap.Stringer("to", next))
	c.state = next
	if next != StateErrored {
		c.lastErr = ""
	}
}

func (c *Controller) findLocked(id string) (post.SearchResult, bool) {
	for _, r := range c.results {
		if r.ID == id {
			return r, true
		}
	}
	return post.SearchResult{}, false
}
