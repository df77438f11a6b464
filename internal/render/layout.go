// Package render turns a comparison table and a source illustration into
// fixed-size raster images. Layout is a pure computation producing draw
// instructions; a thin rasterizer executes them, so row sizing and wrapping
// stay testable without a rendering surface.
package render

import (
	"image"
	"image/color"

	"github.com/JerryShih01/MEDIG-8/internal/post"
)

// CanvasSize is the side length of both output images. A design constant,
// not user-configurable.
const CanvasSize = 1080

// Fixed table geometry. Column widths are constants, not proportional to
// content, so the two compared sides always line up across posts.
const (
	marginX          = 48
	titleBaseline    = 72
	headerBandTop    = 104
	headerBandHeight = 56
	headerAreaHeight = headerBandTop + headerBandHeight
	footerMargin     = 48
	cellPadding      = 14
	lineHeight       = 34

	titleSize       = 44
	headerSize      = 28
	bodySize        = 26
	attributionSize = 18
)

var (
	colX = [3]int{marginX, 300, 672}
	colW = [3]int{252, 372, CanvasSize - marginX - 672}
)

var (
	colorWhite       = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorBackground  = color.NRGBA{R: 0xF1, G: 0xF5, B: 0xF9, A: 0xFF}
	colorHeaderBand  = color.NRGBA{R: 0xE8, G: 0xF2, B: 0xFD, A: 0xFF}
	colorTitle       = color.NRGBA{R: 0x0F, G: 0x17, B: 0x2A, A: 0xFF}
	colorBody        = color.NRGBA{R: 0x1E, G: 0x29, B: 0x3B, A: 0xFF}
	colorDivider     = color.NRGBA{R: 0xE2, G: 0xE8, B: 0xF0, A: 0xFF}
	colorAttribution = color.NRGBA{R: 0x94, G: 0xA3, B: 0xB8, A: 0xFF}

	// One color per header column: neutral aspect column, then the two
	// compared sides keyed by accent.
	headerColors = [3]color.NRGBA{
		{R: 0x33, G: 0x41, B: 0x55, A: 0xFF},
		{R: 0x02, G: 0x84, B: 0xC7, A: 0xFF},
		{R: 0xEA, G: 0x58, B: 0x0C, A: 0xFF},
	}
)

const attributionText = "MEDIG-8"

// TextStyle selects a face and fill color for a text op.
type TextStyle struct {
	Size  float64
	Bold  bool
	Color color.NRGBA
}

// OpKind discriminates draw instructions.
type OpKind int

const (
	OpFill OpKind = iota
	OpText
)

// Op is one draw instruction. Ops are executed in slice order.
type Op struct {
	Kind  OpKind
	Rect  image.Rectangle // OpFill
	Color color.NRGBA     // OpFill
	X, Y  int             // OpText: baseline origin
	Text  string          // OpText
	Style TextStyle       // OpText
}

// Measurer reports the advance width of a string in a given style. The
// rasterizer implements it with real font metrics; layout tests use a
// fixed-advance fake.
type Measurer interface {
	Width(text string, style TextStyle) int
}

// rowSlotHeight computes the vertical space of one row slot. With rows
// present the table fills the area between the header band and the footer
// margin evenly; the +1 leaves breathing room below the last row.
func rowSlotHeight(rowCount int) float64 {
	avail := float64(CanvasSize - headerAreaHeight - footerMargin)
	return avail / float64(rowCount+1)
}

// layoutTable computes the full instruction list for a table image.
func layoutTable(t post.ComparisonTable, m Measurer) []Op {
	headers := t.Headers
	if len(headers) != 3 {
		fixed := []string{"項目", "A", "B"}
		copy(fixed, headers)
		headers = fixed[:3]
	}

	ops := []Op{{
		Kind:  OpFill,
		Rect:  image.Rect(0, 0, CanvasSize, CanvasSize),
		Color: colorWhite,
	}}

	// Title, centered near the top.
	titleStyle := TextStyle{Size: titleSize, Bold: true, Color: colorTitle}
	ops = append(ops, Op{
		Kind:  OpText,
		X:     (CanvasSize - m.Width(t.Title, titleStyle)) / 2,
		Y:     titleBaseline,
		Text:  t.Title,
		Style: titleStyle,
	})

	// Header band with per-column colored labels.
	ops = append(ops, Op{
		Kind:  OpFill,
		Rect:  image.Rect(marginX, headerBandTop, CanvasSize-marginX, headerBandTop+headerBandHeight),
		Color: colorHeaderBand,
	})
	headerBaseline := headerBandTop + (headerBandHeight+headerSize)/2 - 4
	for i, label := range headers {
		ops = append(ops, Op{
			Kind:  OpText,
			X:     colX[i] + cellPadding,
			Y:     headerBaseline,
			Text:  label,
			Style: TextStyle{Size: headerSize, Bold: true, Color: headerColors[i]},
		})
	}

	if len(t.Rows) > 0 {
		ops = append(ops, layoutRows(t.Rows, m)...)
	}

	// Attribution, right-aligned in the bottom corner.
	attrStyle := TextStyle{Size: attributionSize, Color: colorAttribution}
	ops = append(ops, Op{
		Kind:  OpText,
		X:     CanvasSize - marginX - m.Width(attributionText, attrStyle),
		Y:     CanvasSize - 20,
		Text:  attributionText,
		Style: attrStyle,
	})
	return ops
}

func layoutRows(rows []post.TableRow, m Measurer) []Op {
	var ops []Op
	slot := rowSlotHeight(len(rows))
	bodyStyle := TextStyle{Size: bodySize, Color: colorBody}

	for i, row := range rows {
		top := headerAreaHeight + int(float64(i)*slot)

		// Thin divider above each row.
		ops = append(ops, Op{
			Kind:  OpFill,
			Rect:  image.Rect(marginX, top, CanvasSize-marginX, top+1),
			Color: colorDivider,
		})

		maxLines := (int(slot) - cellPadding) / lineHeight
		if maxLines < 1 {
			maxLines = 1
		}
		cells := [3]string{row.Aspect, row.Value1, row.Value2}
		for c, text := range cells {
			usable := colW[c] - 2*cellPadding
			lines := wrapRunes(text, usable, func(s string) int {
				return m.Width(s, bodyStyle)
			})
			if len(lines) > maxLines {
				lines = lines[:maxLines]
			}
			for j, line := range lines {
				ops = append(ops, Op{
					Kind:  OpText,
					X:     colX[c] + cellPadding,
					Y:     top + cellPadding + int(bodySize) + j*lineHeight,
					Text:  line,
					Style: bodyStyle,
				})
			}
		}
	}
	return ops
}

// wrapRunes breaks text into lines one character at a time: the running line
// grows rune by rune and is flushed as soon as the next rune would overflow
// the usable width. The target script is non-spaced, so whitespace-based
// wrapping would produce single unbreakable lines.
func wrapRunes(text string, maxWidth int, width func(string) int) []string {
	var lines []string
	line := ""
	for _, r := range text {
		candidate := line + string(r)
		if line != "" && width(candidate) > maxWidth {
			lines = append(lines, line)
			line = string(r)
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}
