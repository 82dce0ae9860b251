package parser

// maxRuleTokens is the padded width of one rule. Real-world ACL rules stay
// well below it; padding lets every relative lookup past the logical end of
// a short rule return "" instead of failing.
const maxRuleTokens = 16

// Occurrence selects which occurrence of an anchor token a lookup starts
// from. Last scans the reversed token sequence, which matters when a keyword
// like "range" legally appears twice in one rule: anchoring on the last
// occurrence keeps destination-side lookups from re-matching the source-side
// keyword.
type Occurrence int

const (
	First Occurrence = iota
	Last
)

// Cursor wraps one rule's tokens, right-padded with empty tokens up to
// maxRuleTokens, and exposes position-relative lookup. All lookaheads in the
// rule parser go through ValueAt so each disambiguation site stays auditable.
type Cursor struct {
	fwd []string
	rev []string
}

func NewCursor(tokens []string) *Cursor {
	width := maxRuleTokens
	if len(tokens) > width {
		width = len(tokens)
	}
	fwd := make([]string, width)
	copy(fwd, tokens)
	rev := make([]string, width)
	for i, tok := range fwd {
		rev[width-1-i] = tok
	}
	return &Cursor{fwd: fwd, rev: rev}
}

// At returns the token at absolute position i, or "" outside the window.
func (c *Cursor) At(i int) string {
	if i < 0 || i >= len(c.fwd) {
		return ""
	}
	return c.fwd[i]
}

// PositionOf returns the index of anchor within the selected view, or -1 if
// the anchor is absent. For Last the index is relative to the reversed view.
func (c *Cursor) PositionOf(anchor string, occ Occurrence) int {
	view := c.fwd
	if occ == Last {
		view = c.rev
	}
	for i, tok := range view {
		if tok == anchor {
			return i
		}
	}
	return -1
}

// ValueAt returns the token at PositionOf(anchor)+offset in the selected
// view. Offsets may be negative against the reversed view. Lookups that land
// outside the padded window, or whose anchor is absent, return "".
func (c *Cursor) ValueAt(anchor string, offset int, occ Occurrence) string {
	pos := c.PositionOf(anchor, occ)
	if pos < 0 {
		return ""
	}
	view := c.fwd
	if occ == Last {
		view = c.rev
	}
	i := pos + offset
	if i < 0 || i >= len(view) {
		return ""
	}
	return view[i]
}

// LastNonEmpty returns the rightmost real token, skipping the padding.
func (c *Cursor) LastNonEmpty() string {
	for _, tok := range c.rev {
		if tok != "" {
			return tok
		}
	}
	return ""
}
