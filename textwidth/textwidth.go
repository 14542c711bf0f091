// Package textwidth is the grapheme-width function the layout engine's
// auto-sizing uses (layout.TextMeasurer). The renderer and the backends
// do not call it: backend/term advances its cursor by rune count when
// drawing text runs. Grounded on the
// go.mod's clipperhouse/uax29 + clipperhouse/displaywidth pair rather than
// mattn/go-runewidth: uax29 gives grapheme-cluster boundaries (a cluster,
// not a rune, is the unit layout/render must agree on — an emoji with a
// variation selector or a combining accent is one cell, not two runes'
// worth), and displaywidth computes the East-Asian-aware cell width per
// cluster on top of that.
package textwidth

import (
	"github.com/clipperhouse/displaywidth"
	"github.com/clipperhouse/uax29/v2/graphemes"
)

// StringWidth returns the total display-cell width of s: the sum of each
// grapheme cluster's width (0, 1, or 2 cells).
func StringWidth(s string) int {
	return displaywidth.String(s)
}

// ClusterWidth returns the display-cell width (0, 1, or 2) of a single
// grapheme cluster. Passing a multi-cluster string returns the sum, same
// as StringWidth — callers that need true single-cluster width should
// first split with Clusters.
func ClusterWidth(cluster string) int {
	return displaywidth.String(cluster)
}

// Clusters splits s into its grapheme clusters, the unit both layout's
// auto-sizing and the renderer's DRAW_TEXT emission must walk consistently
// so a wide glyph is never split across a cell boundary.
func Clusters(s string) []string {
	seg := graphemes.NewSegmenter(s)
	var out []string
	for seg.Next() {
		out = append(out, seg.Value())
	}
	return out
}

// Truncate returns the longest prefix of s whose display width is <= max,
// never splitting a grapheme cluster, plus the width actually used.
func Truncate(s string, max int) (string, int) {
	if max <= 0 {
		return "", 0
	}
	used := 0
	out := make([]byte, 0, len(s))
	for _, c := range Clusters(s) {
		w := ClusterWidth(c)
		if used+w > max {
			break
		}
		out = append(out, c...)
		used += w
	}
	return string(out), used
}
