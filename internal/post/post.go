// Package post defines the domain model for generated social-media posts:
// search candidates, structured post content, and the final artifact bundle.
package post

// SearchResult is one candidate news item surfaced by the search stage.
// The ID is assigned locally by the normalizer; ids coming from the backend
// are ignored. Instances are immutable and live until the next search
// replaces the whole list.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
	Date    string `json:"date"`
}

// TableRow is one line item of a comparison table.
type TableRow struct {
	Aspect string `json:"aspect"`
	Value1 string `json:"value1"`
	Value2 string `json:"value2"`
}

// ComparisonTable is a three-column tabular summary attached to post content.
// Headers always has exactly three entries after normalization; the render
// layout re-repairs it defensively.
type ComparisonTable struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    []TableRow `json:"rows"`
}

// PostContent is the structured copy of one generated post. Hashtags is
// never nil after normalization.
type PostContent struct {
	Headline        string          `json:"headline"`
	Caption         string          `json:"caption"`
	Hashtags        []string        `json:"hashtags"`
	ComparisonTable ComparisonTable `json:"comparisonTable"`
}

// GeneratedPost is the artifact bundle: structured content plus the
// illustration bytes and a data URI over them. It is owned by the single
// current-preview slot and replaced wholesale by each generation.
type GeneratedPost struct {
	Content   PostContent
	ImageURL  string
	ImageData []byte
}
