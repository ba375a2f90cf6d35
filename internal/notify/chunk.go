package notify

import "strings"

// Block is the formatted lines of one order, the unit PlanChunks packs.
type Block struct {
	Lines []string
}

// HeaderFunc returns the header lines for a message. continued is false
// only for the first message.
type HeaderFunc func(continued bool) []string

// Limits bounds a planned message.
type Limits struct {
	MaxChars  int
	MaxBlocks int
}

// DefaultLimits are the platform ceilings.
var DefaultLimits = Limits{MaxChars: MaxTextLength, MaxBlocks: MaxBlocksPerMessage}

// PlanChunks packs blocks into as few messages as the limits allow. Every
// message starts with a header, blocks keep their order and are never
// split, and a message that still exceeds MaxChars (a single oversized
// block) is truncated with an ellipsis.
func PlanChunks(header HeaderFunc, blocks []Block, lim Limits) []string {
	if lim.MaxChars <= 0 {
		lim.MaxChars = MaxTextLength
	}
	if lim.MaxBlocks <= 0 {
		lim.MaxBlocks = MaxBlocksPerMessage
	}

	var (
		out     []string
		cur     []string
		curLen  int
		curN    int
		head    = header(false)
		headLen = linesLength(head)
	)

	flush := func() {
		if curN == 0 {
			return
		}
		lines := make([]string, 0, len(head)+len(cur))
		lines = append(append(lines, head...), cur...)
		out = append(out, truncateTo(strings.Join(lines, "\n"), lim.MaxChars))
		cur, curLen, curN = nil, 0, 0
	}

	for _, b := range blocks {
		bl := linesLength(b.Lines)
		next := bl
		if curLen > 0 {
			next = curLen + 1 + bl
		}
		candidate := headLen + 1 + next

		if curN >= lim.MaxBlocks || (candidate > lim.MaxChars && curN > 0) {
			flush()
			head = header(true)
			headLen = linesLength(head)
		}

		if curLen > 0 {
			curLen += 1 + bl
		} else {
			curLen = bl
		}
		cur = append(cur, b.Lines...)
		curN++
	}
	flush()
	return out
}
