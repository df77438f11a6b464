// Package normalize repairs and validates the schema-fuzzy JSON returned by
// the Gemini calls. It is the only boundary where untyped backend values are
// turned into domain values; nothing untyped crosses it.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JerryShih01/MEDIG-8/internal/core"
	"github.com/JerryShih01/MEDIG-8/internal/post"
)

// Repair defaults for the comparison table.
const (
	defaultTableTitle = "資訊整理"
)

var (
	defaultTableHeaders = []string{"項目", "內容", "備註"}
	fallbackHeaders     = []string{"項目", "A", "B"}
)

// searchArrayKeys are probed in priority order when the top-level search
// value is an object instead of an array.
var searchArrayKeys = []string{"results", "items", "data"}

// SearchResults parses a raw search response into candidate items. The
// top-level value may be an array or an object wrapping one under a known
// key; anything else yields an empty slice, which is a valid "no results"
// outcome rather than an error. Every element gets a locally assigned id
// derived from now and its index, so normalizing the same payload with the
// same timestamp is idempotent.
func SearchResults(raw string, now time.Time) ([]post.SearchResult, error) {
	var value any
	if err := json.Unmarshal([]byte(stripFences(raw)), &value); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}

	arr := findArray(value)
	results := make([]post.SearchResult, 0, len(arr))
	for _, elem := range arr {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		results = append(results, post.SearchResult{
			ID:      fmt.Sprintf("%d-%d", now.UnixMilli(), len(results)),
			Title:   stringField(obj, "title"),
			Source:  stringField(obj, "source"),
			URL:     stringField(obj, "url"),
			Summary: stringField(obj, "summary"),
			Date:    stringField(obj, "date"),
		})
	}
	return results, nil
}

// PostContent parses a raw content-synthesis response and repairs every
// shape irregularity that has a documented default: missing hashtags become
// an empty slice, a missing comparison table becomes the default table, and
// missing rows or headers are filled in. The repairs are independent and
// idempotent; only a structurally unparseable payload is an error.
func PostContent(raw string) (post.PostContent, error) {
	var value any
	if err := json.Unmarshal([]byte(stripFences(raw)), &value); err != nil {
		return post.PostContent{}, fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return post.PostContent{}, fmt.Errorf("%w: top-level value is not an object", core.ErrMalformedResponse)
	}

	content := post.PostContent{
		Headline: stringField(obj, "headline"),
		Caption:  stringField(obj, "caption"),
		Hashtags: stringSlice(obj["hashtags"]),
	}
	content.ComparisonTable = normalizeTable(obj["comparisonTable"])
	return content, nil
}

func normalizeTable(value any) post.ComparisonTable {
	obj, ok := value.(map[string]any)
	if !ok {
		return post.ComparisonTable{
			Title:   defaultTableTitle,
			Headers: append([]string(nil), defaultTableHeaders...),
			Rows:    []post.TableRow{},
		}
	}

	table := post.ComparisonTable{
		Title:   stringField(obj, "title"),
		Headers: repairHeaders(stringSlice(obj["headers"])),
		Rows:    normalizeRows(obj["rows"]),
	}
	if table.Title == "" {
		table.Title = defaultTableTitle
	}
	return table
}

// repairHeaders guarantees exactly three entries, filling gaps from the
// fallback header set.
func repairHeaders(headers []string) []string {
	repaired := append([]string(nil), fallbackHeaders...)
	for i := 0; i < len(repaired) && i < len(headers); i++ {
		if headers[i] != "" {
			repaired[i] = headers[i]
		}
	}
	return repaired
}

func normalizeRows(value any) []post.TableRow {
	arr, _ := value.([]any)
	rows := make([]post.TableRow, 0, len(arr))
	for _, elem := range arr {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		rows = append(rows, post.TableRow{
			Aspect: stringField(obj, "aspect"),
			Value1: stringField(obj, "value1"),
			Value2: stringField(obj, "value2"),
		})
	}
	return rows
}

// findArray returns the first array in the value: the value itself, or one
// nested under a known wrapper key. No array means no results.
func findArray(value any) []any {
	if arr, ok := value.([]any); ok {
		return arr
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range searchArrayKeys {
		if arr, ok := obj[key].([]any); ok {
			return arr
		}
	}
	return nil
}

// stripFences removes surrounding markdown code-fence markup so the body can
// be parsed structurally.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func stringSlice(value any) []string {
	arr, _ := value.([]any)
	out := make([]string, 0, len(arr))
	for _, elem := range arr {
		if s, ok := elem.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
