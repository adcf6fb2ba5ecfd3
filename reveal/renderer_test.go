package reveal

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

const ms = time.Millisecond

// recorder captures hook calls.
type recorder struct {
	updates   []string
	continues int
	choices   [][]string
	completes int
}

func (rec *recorder) hooks() Hooks {
	return Hooks{
		OnUpdate:   func(s string) { rec.updates = append(rec.updates, s) },
		OnContinue: func() { rec.continues++ },
		OnChoices:  func(c []string) { rec.choices = append(rec.choices, c) },
	}
}

func (rec *recorder) done() { rec.completes++ }

func newTestRenderer(opts Options) (*Renderer, *Manual, *recorder) {
	m := NewManual()
	rec := &recorder{}
	return NewRenderer(m, opts, rec.hooks()), m, rec
}

// smallChunks yields a ten-rune chunk target.
var smallChunks = Options{MaxLinesPerChunk: 1, AvgCharsPerLine: 10}

func TestRenderer_Timing(t *testing.T) {
	r, m, rec := newTestRenderer(Options{})
	r.SetText("Hi.", nil, rec.done)

	steps := []struct {
		advance time.Duration
		want    string
		done    bool
	}{
		{0, "H", false},
		{29 * ms, "H", false},
		{1 * ms, "Hi", false},
		{30 * ms, "Hi.", false},
		{149 * ms, "Hi.", false},
		{1 * ms, "Hi.", true},
	}
	for i, s := range steps {
		m.Advance(s.advance)
		if got := r.Displayed(); got != s.want {
			t.Errorf("step %d: expected %q, got %q", i, s.want, got)
		}
		if got := rec.completes == 1; got != s.done {
			t.Errorf("step %d: expected done=%v at %v", i, s.done, m.Elapsed())
		}
	}
	if r.Phase() != PhaseDone {
		t.Errorf("expected done phase, got %s", r.Phase())
	}
	if m.Elapsed() != 210*ms {
		t.Errorf("expected 210ms elapsed, got %v", m.Elapsed())
	}
	if want := []string{"H", "Hi", "Hi."}; !reflect.DeepEqual(rec.updates, want) {
		t.Errorf("expected updates %q, got %q", want, rec.updates)
	}
}

func TestRenderer_CommaPause(t *testing.T) {
	r, m, rec := newTestRenderer(Options{})
	r.SetText("a,b", nil, rec.done)

	m.Advance(30 * ms)
	if r.Displayed() != "a," {
		t.Fatalf("expected %q, got %q", "a,", r.Displayed())
	}
	m.Advance(59 * ms)
	if r.Displayed() != "a," {
		t.Errorf("comma pause too short: got %q at %v", r.Displayed(), m.Elapsed())
	}
	m.Advance(1 * ms)
	if r.Displayed() != "a,b" {
		t.Errorf("expected %q, got %q", "a,b", r.Displayed())
	}
	m.Advance(30 * ms)
	if rec.completes != 1 {
		t.Errorf("expected completion at 120ms, got %d completions", rec.completes)
	}
}

func TestRenderer_CustomTiming(t *testing.T) {
	r, m, rec := newTestRenderer(Options{TypingSpeed: 10 * ms, PunctuationPause: 100 * ms})
	r.SetText("ab!", nil, rec.done)
	m.Drain(100)
	if m.Elapsed() != 120*ms {
		t.Errorf("expected 120ms, got %v", m.Elapsed())
	}
}

func TestRenderer_TagsAreAtomic(t *testing.T) {
	r, m, rec := newTestRenderer(Options{})
	r.SetText(`<b>a</b>b <span class="k">c</span>`, nil, rec.done)

	if r.Displayed() != "<b>a" {
		t.Errorf("expected tag with first char, got %q", r.Displayed())
	}
	m.Advance(30 * ms)
	if r.Displayed() != "<b>a</b>b" {
		t.Errorf("expected closing tag with next char, got %q", r.Displayed())
	}
	m.Drain(100)

	for _, u := range rec.updates {
		if strings.Count(u, "<") != strings.Count(u, ">") {
			t.Errorf("update ends inside a tag: %q", u)
		}
	}
	if got := r.Displayed(); got != `<b>a</b>b <span class="k">c</span>` {
		t.Errorf("expected full markup, got %q", got)
	}
	if rec.completes != 1 {
		t.Errorf("expected 1 completion, got %d", rec.completes)
	}
}

func TestRenderer_SkipDeterminism(t *testing.T) {
	text := "The clock reads <b>3:17</b>. Again, it reads 3:17!"
	choices := []string{"Look away", "Keep staring"}

	skipped, _, recA := newTestRenderer(Options{})
	skipped.SetText(text, choices, recA.done)
	skipped.Skip()

	natural, m, recB := newTestRenderer(Options{})
	natural.SetText(text, choices, recB.done)
	m.Drain(1000)

	if skipped.Displayed() != natural.Displayed() {
		t.Errorf("skip shows %q, natural finish shows %q", skipped.Displayed(), natural.Displayed())
	}
	if skipped.Phase() != natural.Phase() {
		t.Errorf("skip phase %s, natural phase %s", skipped.Phase(), natural.Phase())
	}
	if !reflect.DeepEqual(recA.choices, recB.choices) {
		t.Errorf("skip choices %v, natural choices %v", recA.choices, recB.choices)
	}
	if recA.completes != 0 || recB.completes != 0 {
		t.Error("onComplete should not run when choices are shown")
	}
}

func TestRenderer_SkipCancelsTimer(t *testing.T) {
	r, m, rec := newTestRenderer(Options{})
	r.SetText("Hello there.", nil, rec.done)
	m.Advance(60 * ms)
	r.Skip()

	if m.Len() != 0 {
		t.Errorf("expected no pending timers after skip, got %d", m.Len())
	}
	if rec.completes != 1 {
		t.Errorf("expected 1 completion, got %d", rec.completes)
	}
	n := len(rec.updates)
	m.Advance(time.Second)
	if len(rec.updates) != n {
		t.Error("updates arrived after skip")
	}

	// Skip when not animating is a no-op.
	r.Skip()
	if rec.completes != 1 {
		t.Errorf("expected still 1 completion, got %d", rec.completes)
	}
}

func TestRenderer_ChunksContinueAndChoices(t *testing.T) {
	r, m, rec := newTestRenderer(smallChunks)
	text := "One two three four five six"
	r.SetText(text, []string{"yes", "no"}, rec.done)

	chunks := r.Chunks()
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %q", chunks)
	}
	if strings.Join(chunks, "") != text {
		t.Fatalf("chunks do not rebuild text: %q", chunks)
	}

	for i := 0; i < len(chunks)-1; i++ {
		m.Drain(1000)
		if r.Phase() != PhaseChunkComplete {
			t.Fatalf("chunk %d: expected chunkComplete, got %s", i, r.Phase())
		}
		if r.Displayed() != chunks[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, chunks[i], r.Displayed())
		}
		if rec.continues != i+1 {
			t.Errorf("chunk %d: expected %d continue signals, got %d", i, i+1, rec.continues)
		}
		r.ShowNextChunk()
	}
	m.Drain(1000)

	if r.Phase() != PhaseChoicesShown {
		t.Errorf("expected choicesShown, got %s", r.Phase())
	}
	if want := [][]string{{"yes", "no"}}; !reflect.DeepEqual(rec.choices, want) {
		t.Errorf("expected choices %v, got %v", want, rec.choices)
	}
	if i, n := r.Chunk(); i != n-1 {
		t.Errorf("expected last chunk, got %d of %d", i, n)
	}

	// Continuing past the last chunk with choices shown does nothing.
	r.ShowNextChunk()
	r.Advance()
	if rec.completes != 0 {
		t.Errorf("expected no completion with choices, got %d", rec.completes)
	}
}

func TestRenderer_ShowNextChunkWhileAnimating(t *testing.T) {
	r, m, rec := newTestRenderer(smallChunks)
	r.SetText("One two three four five six", nil, rec.done)
	chunks := r.Chunks()

	r.ShowNextChunk()

	if rec.continues != 1 {
		t.Errorf("expected the skipped chunk to signal continue, got %d", rec.continues)
	}
	if i, _ := r.Chunk(); i != 1 {
		t.Errorf("expected chunk 1, got %d", i)
	}
	if r.Displayed() != chunks[1][:1] {
		t.Errorf("expected first char of chunk 1, got %q", r.Displayed())
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 pending timer, got %d", m.Len())
	}
}

func TestRenderer_Advance(t *testing.T) {
	r, m, rec := newTestRenderer(smallChunks)
	r.SetText("One two three four", nil, rec.done)
	_, n := r.Chunk()
	if n != 2 {
		t.Fatalf("expected 2 chunks, got %q", r.Chunks())
	}

	r.Advance() // skip chunk 0
	if r.Phase() != PhaseChunkComplete {
		t.Fatalf("expected chunkComplete, got %s", r.Phase())
	}
	r.Advance() // start chunk 1
	if !r.Animating() {
		t.Fatalf("expected animating, got %s", r.Phase())
	}
	m.Drain(1000)
	if rec.completes != 1 {
		t.Fatalf("expected completion, got %d", rec.completes)
	}
	r.Advance()
	r.Advance()
	if rec.completes != 1 {
		t.Errorf("onComplete ran more than once: %d", rec.completes)
	}
}

func TestRenderer_SetTextCancelsPrevious(t *testing.T) {
	r, m, _ := newTestRenderer(Options{})
	first := 0
	r.SetText("abcdef", nil, func() { first++ })
	m.Advance(30 * ms)
	if r.Displayed() != "ab" {
		t.Fatalf("expected %q, got %q", "ab", r.Displayed())
	}

	second := 0
	r.SetText("xyz", nil, func() { second++ })
	if r.Displayed() != "x" {
		t.Errorf("expected %q, got %q", "x", r.Displayed())
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 pending timer, got %d", m.Len())
	}
	m.Drain(1000)
	if r.Displayed() != "xyz" {
		t.Errorf("expected %q, got %q", "xyz", r.Displayed())
	}
	if first != 0 || second != 1 {
		t.Errorf("expected completions 0/1, got %d/%d", first, second)
	}
}

func TestRenderer_EmptyText(t *testing.T) {
	t.Run("no choices", func(t *testing.T) {
		r, m, rec := newTestRenderer(Options{})
		r.SetText("", nil, rec.done)
		if rec.completes != 1 {
			t.Errorf("expected immediate completion, got %d", rec.completes)
		}
		if r.Phase() != PhaseDone {
			t.Errorf("expected done, got %s", r.Phase())
		}
		if m.Len() != 0 {
			t.Errorf("expected no timers, got %d", m.Len())
		}
	})
	t.Run("choices", func(t *testing.T) {
		r, _, rec := newTestRenderer(Options{})
		r.SetText("", []string{"go"}, rec.done)
		if len(rec.choices) != 1 {
			t.Errorf("expected choices shown, got %v", rec.choices)
		}
		if rec.completes != 0 {
			t.Errorf("expected no completion, got %d", rec.completes)
		}
		if r.Phase() != PhaseChoicesShown {
			t.Errorf("expected choicesShown, got %s", r.Phase())
		}
	})
}

func TestRenderer_NilHooks(t *testing.T) {
	m := NewManual()
	r := NewRenderer(m, smallChunks, Hooks{})
	r.SetText("One two three four", []string{"a"}, nil)
	r.ShowNextChunk()
	m.Drain(1000)
	if r.Phase() != PhaseChoicesShown {
		t.Errorf("expected choicesShown, got %s", r.Phase())
	}
}

// countingScheduler tracks how many calls are pending at once.
type countingScheduler struct {
	*Manual
	pending, peak int
}

type countingTimer struct {
	Timer
	c *countingScheduler
}

func (t countingTimer) Stop() bool {
	if t.Timer.Stop() {
		t.c.pending--
		return true
	}
	return false
}

func (c *countingScheduler) Schedule(d time.Duration, fn func()) Timer {
	c.pending++
	c.peak = max(c.peak, c.pending)
	return countingTimer{
		Timer: c.Manual.Schedule(d, func() {
			c.pending--
			fn()
		}),
		c: c,
	}
}

func TestRenderer_SinglePendingTimer(t *testing.T) {
	c := &countingScheduler{Manual: NewManual()}
	r := NewRenderer(c, smallChunks, Hooks{})

	r.SetText("One two three four five six", nil, nil)
	c.Advance(45 * ms)
	r.SetText("Seven eight nine ten", nil, nil)
	c.Advance(15 * ms)
	r.ShowNextChunk()
	c.Drain(1000)
	r.Skip()

	if c.peak != 1 {
		t.Errorf("expected at most 1 pending timer, peak was %d", c.peak)
	}
	if c.pending != 0 {
		t.Errorf("expected no pending timers, got %d", c.pending)
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		PhaseIdle:          "idle",
		PhaseAnimating:     "animating",
		PhaseChunkComplete: "chunkComplete",
		PhaseChoicesShown:  "choicesShown",
		PhaseDone:          "done",
		Phase(42):          "unknown",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d): expected %q, got %q", int(p), want, got)
		}
	}
}

func TestOptions_ChunkSize(t *testing.T) {
	if got := (Options{}).ChunkSize(); got != 165 {
		t.Errorf("expected default chunk size 165, got %d", got)
	}
	if got := smallChunks.ChunkSize(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
}
