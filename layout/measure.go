package layout

import (
	"strings"

	"github.com/rezi-tui/rezi/instance"
	"github.com/rezi-tui/rezi/textwidth"
	"github.com/rezi-tui/rezi/vnode"
)

// TextMeasurer is the default Measurer: a text leaf's intrinsic size is
// its content's display width (single line) or the widest line and line
// count (when it wraps on explicit newlines); every other kind measures
// as zero, deferring entirely to explicit size props.
type TextMeasurer struct{}

func (TextMeasurer) Intrinsic(in *instance.Instance, availableW int) (w, h int) {
	if in.VNode.Kind != vnode.KindText {
		return 0, 0
	}
	content, _ := in.VNode.Props["content"].(string)
	lines := strings.Split(content, "\n")
	maxW := 0
	for _, line := range lines {
		if lw := textwidth.StringWidth(line); lw > maxW {
			maxW = lw
		}
	}
	return maxW, len(lines)
}
