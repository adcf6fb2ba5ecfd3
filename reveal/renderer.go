package reveal

import (
	"strings"
	"time"
)

// Phase is the renderer's state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAnimating
	PhaseChunkComplete // more chunks remain; waiting for the reader
	PhaseChoicesShown
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAnimating:
		return "animating"
	case PhaseChunkComplete:
		return "chunkComplete"
	case PhaseChoicesShown:
		return "choicesShown"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Hooks receive renderer signals. Any hook may be nil.
type Hooks struct {
	// OnUpdate is called whenever the displayed markup grows.
	OnUpdate func(displayed string)
	// OnContinue is called when a chunk completes and more remain.
	OnContinue func()
	// OnChoices is called when the last chunk completes and choices exist.
	OnChoices func(choices []string)
}

// Renderer reveals one text at a time. It is a cooperative state machine:
// each reveal step schedules the next, and at most one step is pending.
// It is not safe for concurrent use.
type Renderer struct {
	opts  Options
	sched Scheduler
	hooks Hooks

	chunks []string
	parsed [][]Segment

	chunk int // index of the current chunk
	seg   int // index of the current segment within the chunk
	char  int // rune index within the current text segment
	shown strings.Builder

	choices    []string
	onComplete func()
	completed  bool

	phase Phase
	timer Timer
	gen   uint64
}

// NewRenderer creates an idle renderer.
func NewRenderer(sched Scheduler, opts Options, hooks Hooks) *Renderer {
	return &Renderer{
		opts:  opts.withDefaults(),
		sched: sched,
		hooks: hooks,
	}
}

// SetText cancels any reveal in progress and starts revealing text. The
// choices are surfaced after the last chunk; otherwise onComplete runs
// once.
func (r *Renderer) SetText(text string, choices []string, onComplete func()) {
	r.cancel()

	r.chunks = Split(text, r.opts.ChunkSize())
	r.parsed = make([][]Segment, len(r.chunks))
	for i, c := range r.chunks {
		r.parsed[i] = Parse(c)
	}
	r.choices = choices
	r.onComplete = onComplete
	r.completed = false
	r.chunk, r.seg, r.char = 0, 0, 0
	r.shown.Reset()

	if len(r.chunks) == 0 {
		r.phase = PhaseIdle
		r.finish()
		return
	}
	r.startChunk(0)
}

// ShowNextChunk completes the current chunk if it is still animating and
// then starts the next one, if any.
func (r *Renderer) ShowNextChunk() {
	if r.phase == PhaseAnimating {
		r.Skip()
	}
	if r.phase == PhaseChunkComplete && r.chunk < len(r.chunks)-1 {
		r.startChunk(r.chunk + 1)
	}
}

// Skip shows the rest of the current chunk immediately and runs the same
// completion handling as a natural finish.
func (r *Renderer) Skip() {
	if r.phase != PhaseAnimating {
		return
	}
	r.cancel()
	r.shown.Reset()
	r.shown.WriteString(r.chunks[r.chunk])
	r.seg = len(r.parsed[r.chunk])
	r.char = 0
	r.update()
	r.finish()
}

// Advance is the reader's single "next" action: skip while animating,
// otherwise move to the next chunk, otherwise complete when no choices
// are offered.
func (r *Renderer) Advance() {
	switch {
	case r.phase == PhaseAnimating:
		r.Skip()
	case r.chunk < len(r.chunks)-1:
		r.ShowNextChunk()
	case len(r.choices) == 0:
		r.complete()
	}
}

// Displayed returns the markup revealed so far for the current chunk.
func (r *Renderer) Displayed() string {
	return r.shown.String()
}

// Phase returns the current state.
func (r *Renderer) Phase() Phase {
	return r.phase
}

// Animating reports whether a chunk is being revealed.
func (r *Renderer) Animating() bool {
	return r.phase == PhaseAnimating
}

// Chunk returns the index of the current chunk and the chunk count.
func (r *Renderer) Chunk() (int, int) {
	return r.chunk, len(r.chunks)
}

// Chunks returns the chunks of the current text.
func (r *Renderer) Chunks() []string {
	return append([]string(nil), r.chunks...)
}

// Choices returns the trailing choices of the current text.
func (r *Renderer) Choices() []string {
	return r.choices
}

func (r *Renderer) startChunk(i int) {
	r.cancel()
	r.chunk, r.seg, r.char = i, 0, 0
	r.shown.Reset()
	r.phase = PhaseAnimating
	r.step(r.gen)
}

// step reveals the next character, inserting any tags before it, and
// schedules itself after the character's delay.
func (r *Renderer) step(gen uint64) {
	if gen != r.gen || r.phase != PhaseAnimating {
		return
	}
	r.timer = nil

	segs := r.parsed[r.chunk]
	grew := false
	for r.seg < len(segs) {
		s := segs[r.seg]
		if s.Kind == SegmentTag {
			r.shown.WriteString(s.Content)
			r.seg++
			grew = true
			continue
		}
		if r.char >= len(s.runes) {
			r.seg++
			r.char = 0
			continue
		}

		ch := s.runes[r.char]
		r.shown.WriteRune(ch)
		r.char++
		r.update()
		r.schedule(r.opts.delayAfter(ch))
		return
	}

	// trailing tags
	if grew {
		r.update()
	}
	r.finish()
}

func (r *Renderer) schedule(d time.Duration) {
	gen := r.gen
	r.timer = r.sched.Schedule(d, func() { r.step(gen) })
}

// cancel invalidates the pending step.
func (r *Renderer) cancel() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// finish runs completion handling for the current chunk.
func (r *Renderer) finish() {
	switch {
	case r.chunk < len(r.chunks)-1:
		r.phase = PhaseChunkComplete
		if r.hooks.OnContinue != nil {
			r.hooks.OnContinue()
		}
	case len(r.choices) > 0:
		r.phase = PhaseChoicesShown
		if r.hooks.OnChoices != nil {
			r.hooks.OnChoices(r.choices)
		}
	default:
		r.complete()
	}
}

func (r *Renderer) complete() {
	r.phase = PhaseDone
	if r.completed || r.onComplete == nil {
		return
	}
	r.completed = true
	r.onComplete()
}

func (r *Renderer) update() {
	if r.hooks.OnUpdate != nil {
		r.hooks.OnUpdate(r.shown.String())
	}
}
