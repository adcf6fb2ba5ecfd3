package reveal

import "strings"

// SegmentKind distinguishes literal markup from animatable text.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentTag
)

// Segment is a run of plain text or one complete tag.
type Segment struct {
	Kind    SegmentKind
	Content string
	runes   []rune // Content as runes, text segments only
}

// Parse decomposes markup into segments. A '<' without a closing '>' is
// kept as text, so joining the segment contents always reproduces s.
func Parse(s string) []Segment {
	var segs []Segment
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			segs = append(segs, textSegment(text.String()))
			text.Reset()
		}
	}

	for len(s) > 0 {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			text.WriteString(s)
			break
		}
		end := strings.IndexByte(s[i:], '>')
		if end < 0 {
			text.WriteString(s)
			break
		}
		text.WriteString(s[:i])
		flush()
		segs = append(segs, Segment{Kind: SegmentTag, Content: s[i : i+end+1]})
		s = s[i+end+1:]
	}
	flush()
	return segs
}

func textSegment(s string) Segment {
	return Segment{Kind: SegmentText, Content: s, runes: []rune(s)}
}

// Join concatenates segment contents.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Content)
	}
	return b.String()
}
