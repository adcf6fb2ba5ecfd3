package reveal

// Break-point thresholds as fractions of the target length. A candidate
// must lie strictly beyond the threshold to be used.
const (
	paragraphThreshold = 0.5
	sentenceThreshold  = 0.6
	newlineThreshold   = 0.7
)

var sentenceDelimiters = [][]rune{
	[]rune(". "), []rune("! "), []rune("? "),
	[]rune(".\n"), []rune("!\n"), []rune("?\n"),
}

// Split divides text into chunks of at most size runes where possible,
// preferring paragraph, sentence, line and word boundaries in that order.
// A chunk never ends inside a tag, and concatenating the chunks yields
// text exactly.
func Split(text string, size int) []string {
	if size < 1 {
		size = 1
	}
	var chunks []string
	rest := []rune(text)
	for len(rest) > 0 {
		n := splitPoint(rest, size)
		chunks = append(chunks, string(rest[:n]))
		rest = rest[n:]
	}
	return chunks
}

// splitPoint returns the length of the next chunk of r. The result is
// always in [1, len(r)].
func splitPoint(r []rune, size int) int {
	if len(r) <= size {
		return len(r)
	}
	target := size

	if p := lastIndex(r, []rune("\n\n"), target); beyond(p, target, paragraphThreshold) && !splitsTag(r, p+2) {
		return p + 2
	}

	best := -1
	for _, delim := range sentenceDelimiters {
		if p := lastIndex(r, delim, target); p > best {
			best = p
		}
	}
	if beyond(best, target, sentenceThreshold) && !splitsTag(r, best+2) {
		return best + 2
	}

	if p := lastIndex(r, []rune("\n"), target); beyond(p, target, newlineThreshold) && !splitsTag(r, p+1) {
		return p + 1
	}

	space := lastIndex(r, []rune(" "), target)
	for space > 0 && inTag(r, space) {
		space = lastIndex(r, []rune(" "), space-1)
	}
	if space > 0 {
		return space + 1
	}

	// Forced break: back up to the start of any tag that would be cut.
	n := target
	for n > 0 && inTag(r, n-1) {
		n--
	}
	if n == 0 {
		// The chunk would start with a tag longer than the target; take
		// the whole tag.
		if end := indexFrom(r, '>', 0); end >= 0 {
			n = end + 1
		} else {
			n = target
		}
	}
	return max(n, 1)
}

func beyond(p, target int, fraction float64) bool {
	return p >= 0 && float64(p) > float64(target)*fraction
}

// splitsTag reports whether ending a chunk before index n would leave a
// tag open.
func splitsTag(r []rune, n int) bool {
	return n > 0 && inTag(r, n-1)
}

// inTag reports whether index i lies inside a tag: the last '<' at or
// before i comes after the last '>' at or before i.
func inTag(r []rune, i int) bool {
	lt, gt := -1, -1
	for j := min(i, len(r)-1); j >= 0; j-- {
		if lt < 0 && r[j] == '<' {
			lt = j
		}
		if gt < 0 && r[j] == '>' {
			gt = j
		}
		if lt >= 0 && gt >= 0 {
			break
		}
	}
	return lt > gt
}

// lastIndex returns the start of the last occurrence of sub in r that
// begins at or before from, or -1.
func lastIndex(r, sub []rune, from int) int {
	start := min(from, len(r)-len(sub))
	for i := start; i >= 0; i-- {
		if match(r[i:], sub) {
			return i
		}
	}
	return -1
}

func match(r, prefix []rune) bool {
	if len(r) < len(prefix) {
		return false
	}
	for i, c := range prefix {
		if r[i] != c {
			return false
		}
	}
	return true
}

func indexFrom(r []rune, c rune, from int) int {
	for i := from; i < len(r); i++ {
		if r[i] == c {
			return i
		}
	}
	return -1
}
