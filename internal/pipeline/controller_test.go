package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/JerryShih01/MEDIG-8/internal/core"
	"github.com/JerryShih01/MEDIG-8/internal/gemini"
	"github.com/JerryShih01/MEDIG-8/internal/post"
)

func TestMain(m *testing.M) {
	// opencensus (via the genai SDK) starts a permanent stats worker in init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeTextGen returns canned responses in order. A response that is an error
// string prefixed with "err:" is returned as an error instead.
type fakeTextGen struct {
	mu        sync.Mutex
	responses []string
	requests  []gemini.GenerateRequest
	// release, when set, blocks Generate until the channel is closed.
	release chan struct{}
	started chan struct{}
}

func (f *fakeTextGen) Generate(ctx context.Context, req gemini.GenerateRequest) (string, error) {
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return "", fmt.Errorf("%w: fake exhausted", core.ErrBackend)
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	if rest, ok := strings.CutPrefix(next, "err:"); ok {
		return "", fmt.Errorf("%w: %s", core.ErrBackend, rest)
	}
	return next, nil
}

type fakeImageGen struct {
	data []byte
	err  error
}

func (f *fakeImageGen) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	return f.data, f.err
}

const searchResponse = `[
	{"title": "新藥核准", "source": "報導者", "url": "https://example.com/a", "summary": "摘要一", "date": "2026-03-01"},
	{"title": "試驗結果", "source": "中央社", "url": "https://example.com/b", "summary": "摘要二", "date": "2026-03-02"},
	{"title": "疫苗進展", "source": "聯合報", "url": "https://example.com/c", "summary": "摘要三", "date": "2026-03-03"}
]`

const contentResponse = `{
	"headline": "新藥來了",
	"caption": "內文",
	"hashtags": ["醫療", "新藥"],
	"comparisonTable": {
		"title": "比較",
		"headers": ["項目", "舊藥", "新藥"],
		"rows": [{"aspect": "療效", "value1": "60%", "value2": "85%"}]
	}
}`

func newTestController(text *fakeTextGen, image *fakeImageGen) *Controller {
	search := NewSearchStage(text, nil)
	search.clock = func() time.Time { return time.UnixMilli(1700000000000) }
	content := NewContentStage(text, nil)
	illus := NewIllustrationStage(image, nil)
	return NewController(search, content, illus, nil)
}

func TestController_SearchReachesComplete(t *testing.T) {
	text := &fakeTextGen{responses: []string{searchResponse}}
	c := newTestController(text, &fakeImageGen{})

	results, err := c.Search(context.Background(), "新藥", date("2026-03-01"), date("2026-03-07"))
	require.NoError(t, err)
	assert.Equal(t, StateComplete, c.State())
	assert.Empty(t, c.LastError())

	require.Len(t, results, 3)
	seen := map[string]bool{}
	for _, r := range results {
		assert.NotEmpty(t, r.ID)
		seen[r.ID] = true
	}
	assert.Len(t, seen, 3, "ids must be distinct")
	assert.Equal(t, "新藥核准", results[0].Title)

	// The search call must carry the grounding tool.
	require.Len(t, text.requests, 1)
	assert.True(t, text.requests[0].GoogleSearch)
}

func TestController_EmptySearchIsCompleteNotErrored(t *testing.T) {
	text := &fakeTextGen{responses: []string{`{"data": []}`}}
	c := newTestController(text, &fakeImageGen{})

	results, err := c.Search(context.Background(), "", date("2026-03-01"), date("2026-03-07"))
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, StateComplete, c.State())
}

func TestController_SearchFailureReachesErrored(t *testing.T) {
	text := &fakeTextGen{responses: []string{"err:quota exceeded"}}
	c := newTestController(text, &fakeImageGen{})

	_, err := c.Search(context.Background(), "新藥", date("2026-03-01"), date("2026-03-07"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrBackend))
	assert.Equal(t, StateErrored, c.State())
	assert.Contains(t, c.LastError(), "quota exceeded")
}

func TestController_GenerateFullRun(t *testing.T) {
	text := &fakeTextGen{responses: []string{searchResponse, contentResponse}}
	image := &fakeImageGen{data: []byte("png-bytes")}
	c := newTestController(text, image)

	results, err := c.Search(context.Background(), "新藥", date("2026-03-01"), date("2026-03-07"))
	require.NoError(t, err)

	generated, err := c.Generate(context.Background(), results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, c.State())

	assert.Equal(t, "新藥來了", generated.Content.Headline)
	assert.Equal(t, []byte("png-bytes"), generated.ImageData)
	assert.True(t, strings.HasPrefix(generated.ImageURL, "data:image/png;base64,"))
	require.NotNil(t, c.Current())
	assert.Equal(t, generated, c.Current())
}

func TestController_GenerateUnknownID(t *testing.T) {
	text := &fakeTextGen{responses: []string{searchResponse}}
	c := newTestController(text, &fakeImageGen{})

	_, err := c.Search(context.Background(), "新藥", date("2026-03-01"), date("2026-03-07"))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "no-such-id")
	assert.True(t, errors.Is(err, core.ErrUnknownResult))
	assert.Equal(t, StateComplete, c.State(), "a rejected trigger must not disturb state")
}

func TestController_ImageFailureDegradesToPlaceholder(t *testing.T) {
	text := &fakeTextGen{responses: []string{searchResponse, contentResponse}}
	image := &fakeImageGen{err: errors.New("image backend down")}
	c := newTestController(text, image)

	results, err := c.Search(context.Background(), "新藥", date("2026-03-01"), date("2026-03-07"))
	require.NoError(t, err)

	generated, err := c.Generate(context.Background(), results[0].ID)
	require.NoError(t, err, "an image failure must not fail the run")
	assert.Equal(t, StateComplete, c.State())
	assert.Equal(t, post.PlaceholderPNG(), generated.ImageData)
}

func TestController_ContentFailureReachesErrored(t *testing.T) {
	text := &fakeTextGen{responses: []string{searchResponse, "err:model overloaded"}}
	c := newTestController(text, &fakeImageGen{})

	results, err := c.Search(context.Background(), "新藥", date("2026-03-01"), date("2026-03-07"))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), results[0].ID)
	require.Error(t, err)
	assert.Equal(t, StateErrored, c.State())
	assert.Contains(t, c.LastError(), "model overloaded")
	assert.Nil(t, c.Current())

	// Errored is a legal origin for the next trigger.
	text.mu.Lock()
	text.responses = []string{searchResponse}
	text.mu.Unlock()
	_, err = c.Search(context.Background(), "新藥", date("2026-03-01"), date("2026-03-07"))
	require.NoError(t, err)
	assert.Empty(t, c.LastError(), "recovery must clear the last error")
}

func TestController_BusyRejection(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	text := &fakeTextGen{
		responses: []string{searchResponse},
		release:   release,
		started:   started,
	}
	c := newTestController(text, &fakeImageGen{})

	done := make(chan error, 1)
	go func() {
		_, err := c.Search(context.Background(), "新藥", date("2026-03-01"), date("2026-03-07"))
		done <- err
	}()

	<-started
	assert.Equal(t, StateSearching, c.State())

	_, err := c.Search(context.Background(), "另一題", date("2026-03-01"), date("2026-03-07"))
	assert.True(t, errors.Is(err, core.ErrPipelineBusy))
	_, err = c.Generate(context.Background(), "any")
	assert.True(t, errors.Is(err, core.ErrPipelineBusy))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateComplete, c.State())
}

func TestController_NewSearchClearsCurrentArtifact(t *testing.T) {
	text := &fakeTextGen{responses: []string{searchResponse, contentResponse, searchResponse}}
	c := newTestController(text, &fakeImageGen{data: []byte("png")})

	results, err := c.Search(context.Background(), "新藥", date("2026-03-01"), date("2026-03-07"))
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), results[0].ID)
	require.NoError(t, err)
	require.NotNil(t, c.Current())

	_, err = c.Search(context.Background(), "疫苗", date("2026-03-01"), date("2026-03-07"))
	require.NoError(t, err)
	assert.Nil(t, c.Current(), "a new search must drop the previous artifact")
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
