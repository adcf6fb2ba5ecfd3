// Package reveal implements progressive, markup-safe text reveal: text is
// split into screen-sized chunks and each chunk is typed out character by
// character, with tags inserted atomically.
package reveal

import "time"

// Default timing and layout.
const (
	DefaultTypingSpeed      = 30 * time.Millisecond
	DefaultPunctuationPause = 150 * time.Millisecond
	DefaultMaxLinesPerChunk = 3
	DefaultAvgCharsPerLine  = 55
)

// Options configures a Renderer. Zero fields take the defaults.
type Options struct {
	TypingSpeed      time.Duration
	PunctuationPause time.Duration
	MaxLinesPerChunk int
	AvgCharsPerLine  int
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		TypingSpeed:      DefaultTypingSpeed,
		PunctuationPause: DefaultPunctuationPause,
		MaxLinesPerChunk: DefaultMaxLinesPerChunk,
		AvgCharsPerLine:  DefaultAvgCharsPerLine,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TypingSpeed <= 0 {
		o.TypingSpeed = d.TypingSpeed
	}
	if o.PunctuationPause <= 0 {
		o.PunctuationPause = d.PunctuationPause
	}
	if o.MaxLinesPerChunk <= 0 {
		o.MaxLinesPerChunk = d.MaxLinesPerChunk
	}
	if o.AvgCharsPerLine <= 0 {
		o.AvgCharsPerLine = d.AvgCharsPerLine
	}
	return o
}

// ChunkSize is the target chunk length in runes.
func (o Options) ChunkSize() int {
	o = o.withDefaults()
	return o.MaxLinesPerChunk * o.AvgCharsPerLine
}

// delayAfter returns the pause after revealing ch.
func (o Options) delayAfter(ch rune) time.Duration {
	switch ch {
	case '.', '!', '?':
		return o.PunctuationPause
	case ',':
		return 2 * o.TypingSpeed
	default:
		return o.TypingSpeed
	}
}
