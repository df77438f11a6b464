package post

import "strings"

// ClipboardText flattens post content into the plain-text form handed to the
// clipboard collaborator: headline, blank line, caption, blank line, the
// formatted table block, blank line, space-joined #hashtag tokens. When the
// table has no rows the table block is omitted entirely.
func ClipboardText(p PostContent) string {
	var b strings.Builder
	b.WriteString(p.Headline)
	b.WriteString("\n\n")
	b.WriteString(p.Caption)
	b.WriteString("\n\n")
	b.WriteString(tableText(p.ComparisonTable))
	b.WriteString("\n")
	b.WriteString(hashtagLine(p.Hashtags))
	return b.String()
}

// tableText renders the comparison table as plain text. Empty rows yield an
// empty string so no table block appears in the clipboard output.
func tableText(t ComparisonTable) string {
	if len(t.Rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("【" + t.Title + "】\n")
	if len(t.Headers) == 3 {
		b.WriteString(t.Headers[0] + "｜" + t.Headers[1] + "｜" + t.Headers[2] + "\n")
	}
	for _, r := range t.Rows {
		b.WriteString(r.Aspect + "｜" + r.Value1 + "｜" + r.Value2 + "\n")
	}
	return b.String()
}

func hashtagLine(tags []string) string {
	tokens := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimPrefix(tag, "#"))
		if tag == "" {
			continue
		}
		tokens = append(tokens, "#"+tag)
	}
	return strings.Join(tokens, " ")
}
