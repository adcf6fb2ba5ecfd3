package play

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText converts content markup to terminal text. Tags are dropped,
// keyword spans are bracketed, <br> and </p> become newlines and entities
// are decoded. A trailing entity that is still being revealed ("&am") is
// held back, so the text of a longer prefix always extends the text of a
// shorter one.
func PlainText(markup string) string {
	markup = TrimPartialEntity(markup)

	var b strings.Builder
	var spans []bool // open <span> elements: true for keywords
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "br":
				b.WriteByte('\n')
			case "span":
				if tt == html.SelfClosingTagToken {
					continue
				}
				kw := IsKeyword(tok)
				spans = append(spans, kw)
				if kw {
					b.WriteByte('[')
				}
			}
		case html.EndTagToken:
			tok := z.Token()
			switch tok.Data {
			case "p":
				b.WriteByte('\n')
			case "span":
				if len(spans) == 0 {
					continue
				}
				if spans[len(spans)-1] {
					b.WriteByte(']')
				}
				spans = spans[:len(spans)-1]
			}
		}
	}
}

// IsKeyword reports whether tok carries the "keyword" class.
func IsKeyword(tok html.Token) bool {
	for _, a := range tok.Attr {
		if a.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(a.Val) {
			if cls == "keyword" {
				return true
			}
		}
	}
	return false
}

// TrimPartialEntity drops a trailing character reference that is not
// terminated yet.
func TrimPartialEntity(s string) string {
	i := strings.LastIndexByte(s, '&')
	if i < 0 {
		return s
	}
	tail := s[i+1:]
	if strings.ContainsAny(tail, "; <>\n\t") {
		return s
	}
	return s[:i]
}
