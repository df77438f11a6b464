package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JerryShih01/MEDIG-8/internal/core"
	"github.com/JerryShih01/MEDIG-8/internal/post"
)

var fixedNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestSearchResults_TopLevelArray(t *testing.T) {
	raw := `[
		{"title": "A", "source": "S1", "url": "https://a", "summary": "sa", "date": "2026-07-30"},
		{"title": "B", "source": "S2", "url": "https://b", "summary": "sb", "date": "2026-07-31"},
		{"title": "C", "source": "S3", "url": "https://c", "summary": "sc", "date": "2026-08-01"}
	]`

	results, err := SearchResults(raw, fixedNow)
	if err != nil {
		t.Fatalf("SearchResults() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	seen := map[string]bool{}
	for _, r := range results {
		if r.ID == "" {
			t.Fatalf("result %q has empty id", r.Title)
		}
		if seen[r.ID] {
			t.Fatalf("duplicate id %q", r.ID)
		}
		seen[r.ID] = true
	}
	if results[1].Title != "B" || results[1].Source != "S2" {
		t.Fatalf("results[1] = %+v, want title B source S2", results[1])
	}
}

func TestSearchResults_WrappedArrayKeys(t *testing.T) {
	for _, key := range []string{"results", "items", "data"} {
		raw := `{"` + key + `": [{"title": "X"}, {"title": "Y"}]}`
		results, err := SearchResults(raw, fixedNow)
		if err != nil {
			t.Fatalf("key %s: error = %v", key, err)
		}
		if len(results) != 2 {
			t.Fatalf("key %s: len = %d, want 2", key, len(results))
		}
	}
}

func TestSearchResults_KeyPriorityOrder(t *testing.T) {
	raw := `{"data": [{"title": "wrong"}], "results": [{"title": "right"}]}`
	results, err := SearchResults(raw, fixedNow)
	if err != nil {
		t.Fatalf("SearchResults() error = %v", err)
	}
	if len(results) != 1 || results[0].Title != "right" {
		t.Fatalf("results = %+v, want the entry under 'results'", results)
	}
}

func TestSearchResults_NoRecognizableArray(t *testing.T) {
	results, err := SearchResults(`{"message": "nothing here"}`, fixedNow)
	if err != nil {
		t.Fatalf("SearchResults() error = %v, want nil", err)
	}
	if len(results) != 0 {
		t.Fatalf("len = %d, want 0", len(results))
	}
}

func TestSearchResults_BackendIDsOverwritten(t *testing.T) {
	raw := `[{"id": "backend-id", "title": "A"}]`
	results, err := SearchResults(raw, fixedNow)
	if err != nil {
		t.Fatalf("SearchResults() error = %v", err)
	}
	if results[0].ID == "backend-id" {
		t.Fatal("backend id was kept, want locally assigned id")
	}
}

func TestSearchResults_CodeFences(t *testing.T) {
	raw := "```json\n[{\"title\": \"fenced\"}]\n```"
	results, err := SearchResults(raw, fixedNow)
	if err != nil {
		t.Fatalf("SearchResults() error = %v", err)
	}
	if len(results) != 1 || results[0].Title != "fenced" {
		t.Fatalf("results = %+v, want one fenced entry", results)
	}
}

func TestSearchResults_Unparseable(t *testing.T) {
	_, err := SearchResults("this is not json at all", fixedNow)
	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestSearchResults_NonObjectElementsSkipped(t *testing.T) {
	raw := `[{"title": "ok"}, "stray string", 42]`
	results, err := SearchResults(raw, fixedNow)
	if err != nil {
		t.Fatalf("SearchResults() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len = %d, want 1", len(results))
	}
}

func TestSearchResults_Idempotent(t *testing.T) {
	raw := `{"results": [{"title": "A", "source": "S"}, {"title": "B"}]}`
	first, err := SearchResults(raw, fixedNow)
	if err != nil {
		t.Fatalf("first pass error = %v", err)
	}

	// Re-normalizing the normalized value with the same timestamp must be a
	// no-op, ids included.
	remarshaled := marshalResults(t, first)
	second, err := SearchResults(remarshaled, fixedNow)
	if err != nil {
		t.Fatalf("second pass error = %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("normalization not idempotent (-first +second):\n%s", diff)
	}
}

func TestPostContent_Complete(t *testing.T) {
	raw := `{
		"headline": "新藥獲准",
		"caption": "內文",
		"hashtags": ["醫療", "新藥"],
		"comparisonTable": {
			"title": "臨床數據",
			"headers": ["項目", "治療組", "對照組"],
			"rows": [{"aspect": "有效率", "value1": "82%", "value2": "47%"}]
		}
	}`

	got, err := PostContent(raw)
	if err != nil {
		t.Fatalf("PostContent() error = %v", err)
	}
	want := post.PostContent{
		Headline: "新藥獲准",
		Caption:  "內文",
		Hashtags: []string{"醫療", "新藥"},
		ComparisonTable: post.ComparisonTable{
			Title:   "臨床數據",
			Headers: []string{"項目", "治療組", "對照組"},
			Rows:    []post.TableRow{{Aspect: "有效率", Value1: "82%", Value2: "47%"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("PostContent mismatch (-want +got):\n%s", diff)
	}
}

func TestPostContent_MissingComparisonTable(t *testing.T) {
	got, err := PostContent(`{"headline": "H", "caption": "C"}`)
	if err != nil {
		t.Fatalf("PostContent() error = %v", err)
	}
	want := post.ComparisonTable{
		Title:   "資訊整理",
		Headers: []string{"項目", "內容", "備註"},
		Rows:    []post.TableRow{},
	}
	if diff := cmp.Diff(want, got.ComparisonTable); diff != "" {
		t.Fatalf("default table mismatch (-want +got):\n%s", diff)
	}
}

func TestPostContent_MissingHashtags(t *testing.T) {
	got, err := PostContent(`{"headline": "H"}`)
	if err != nil {
		t.Fatalf("PostContent() error = %v", err)
	}
	if got.Hashtags == nil || len(got.Hashtags) != 0 {
		t.Fatalf("Hashtags = %#v, want empty non-nil slice", got.Hashtags)
	}
}

func TestPostContent_TablePresentButGappy(t *testing.T) {
	raw := `{"comparisonTable": {"rows": [{"aspect": "a"}]}}`
	got, err := PostContent(raw)
	if err != nil {
		t.Fatalf("PostContent() error = %v", err)
	}
	table := got.ComparisonTable
	if table.Title != "資訊整理" {
		t.Fatalf("Title = %q, want default", table.Title)
	}
	if diff := cmp.Diff([]string{"項目", "A", "B"}, table.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
	if len(table.Rows) != 1 || table.Rows[0].Aspect != "a" {
		t.Fatalf("rows = %+v, want the one gappy row kept", table.Rows)
	}
}

func TestPostContent_ShortHeadersFilled(t *testing.T) {
	raw := `{"comparisonTable": {"headers": ["甲"], "rows": []}}`
	got, err := PostContent(raw)
	if err != nil {
		t.Fatalf("PostContent() error = %v", err)
	}
	if diff := cmp.Diff([]string{"甲", "A", "B"}, got.ComparisonTable.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestPostContent_LongHeadersTruncated(t *testing.T) {
	raw := `{"comparisonTable": {"headers": ["a", "b", "c", "d", "e"]}}`
	got, err := PostContent(raw)
	if err != nil {
		t.Fatalf("PostContent() error = %v", err)
	}
	if len(got.ComparisonTable.Headers) != 3 {
		t.Fatalf("len(headers) = %d, want 3", len(got.ComparisonTable.Headers))
	}
}

func TestPostContent_Idempotent(t *testing.T) {
	raws := []string{
		`{"headline": "H"}`,
		`{"headline": "H", "comparisonTable": {"headers": ["甲"]}}`,
		`{"headline": "H", "caption": "C", "hashtags": ["a"], "comparisonTable": {"title": "T", "headers": ["x","y","z"], "rows": [{"aspect":"p","value1":"q","value2":"r"}]}}`,
	}
	for _, raw := range raws {
		first, err := PostContent(raw)
		if err != nil {
			t.Fatalf("first pass error = %v (input %s)", err, raw)
		}
		second, err := PostContent(marshalContent(t, first))
		if err != nil {
			t.Fatalf("second pass error = %v (input %s)", err, raw)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("not idempotent for %s (-first +second):\n%s", raw, diff)
		}
	}
}

func TestPostContent_Unparseable(t *testing.T) {
	_, err := PostContent("not json")
	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
	_, err = PostContent(`[1, 2, 3]`)
	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Fatalf("error for array input = %v, want ErrMalformedResponse", err)
	}
}

func marshalResults(t *testing.T, results []post.SearchResult) string {
	t.Helper()
	data, err := json.Marshal(results)
	if err != nil {
		t.Fatalf("marshal results: %v", err)
	}
	return string(data)
}

func marshalContent(t *testing.T, content post.PostContent) string {
	t.Helper()
	data, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	return string(data)
}
