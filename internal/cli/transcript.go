package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/opencode-ai/awaken/internal/events"
	"github.com/opencode-ai/awaken/internal/models"
	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/sound"
	"github.com/opencode-ai/awaken/internal/tui"
)

type transcriptOptions struct {
	// Clock defaults to the wall clock.
	Clock   sequence.Clock
	Cues    sound.Player
	Journal events.Repository
	// History, when set, is read back after each run for a journal summary.
	// It should also be one of the repositories behind Journal.
	History *events.MemoryRepository
}

// runTranscript plays the scripts without a TUI, writing a plain-text
// account of every step to out. The intro confirms itself at its final step
// and the demo starts right away.
func runTranscript(ctx context.Context, out io.Writer, set scriptSet, opts transcriptOptions) error {
	if set.Intro.Len() > 0 {
		if err := playTranscript(ctx, out, set.Intro, set.IntroPrompt, opts); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if set.Demo.Len() > 0 {
		if err := playTranscript(ctx, out, set.Demo, set.DemoPrompt, opts); err != nil {
			return err
		}
	}
	return nil
}

func playTranscript(ctx context.Context, out io.Writer, script sequence.Script, prompt tui.Prompt, opts transcriptOptions) error {
	w := &transcriptWriter{out: out}
	w.prompt(prompt)

	recorder := events.NewRecorder(opts.Journal)
	seq, err := sequence.New(script, sequence.Options{
		Clock: opts.Clock,
		Cues:  opts.Cues,
		Sink:  recorder.Sink(w.sink),
	})
	if err != nil {
		return fmt.Errorf("start %s: %w", script.Name(), err)
	}

	seq.MarkVisible()
	seq.Start(ctx)
	<-seq.Done()

	if state := seq.State(); state.FinalReached && !state.Completed {
		seq.Confirm()
	}
	seq.Teardown()
	recorder.RecordTeardown(context.Background(), seq)

	if opts.History != nil {
		w.summary(seq.RunID(), opts.History.ListByRun(seq.RunID()))
	}
	return w.Err()
}

// transcriptWriter renders sequencer events as plain lines. Typed text is
// written once fully revealed; progress is reported in quarters.
type transcriptWriter struct {
	out io.Writer

	mu  sync.Mutex
	err error
}

func (w *transcriptWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *transcriptWriter) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	if _, err := fmt.Fprintf(w.out, format, args...); err != nil {
		w.err = fmt.Errorf("write transcript: %w", err)
	}
}

func (w *transcriptWriter) prompt(p tui.Prompt) {
	if p.Title != "" {
		w.printf("%s\n", p.Title)
	}
	if p.Subtitle != "" {
		w.printf("%s\n", p.Subtitle)
	}
}

func (w *transcriptWriter) sink(_ context.Context, ev sequence.Event) {
	step := ev.Step
	switch ev.Type {
	case sequence.EventStarted:
		w.printf("== %s ==\n", ev.Script)

	case sequence.EventStep:
		switch step.Kind {
		case sequence.KindTerminal, sequence.KindTypedText:
			// Written on final and once typing finishes.
		default:
			w.heading(step)
			w.data(step.Data)
		}

	case sequence.EventText:
		if ev.State.Typed == norm.NFC.String(step.Text) {
			w.heading(step)
			w.printf("%s\n", ev.State.Typed)
			w.data(step.Data)
		}

	case sequence.EventProgress:
		if p := ev.State.Progress; p > 0 && p%25 == 0 {
			w.printf("  [%s] %d%%\n", transcriptBar(p, 20), p)
		}

	case sequence.EventLine:
		if n := len(ev.State.Lines); n > 0 {
			w.printf("  > %s\n", ev.State.Lines[n-1])
		}

	case sequence.EventFinal:
		w.heading(step)
		w.data(step.Data)
		if step.Action != "" {
			w.printf("[ %s ]\n", step.Action)
		}

	case sequence.EventComplete:
		w.printf("== %s complete ==\n", ev.Script)
	}
}

func (w *transcriptWriter) summary(runID string, journal []models.Event) {
	if len(journal) == 0 {
		return
	}
	last := journal[len(journal)-1]
	w.printf("-- run %s: %d journal events, last %s\n", runID, len(journal), last.Type)
}

func (w *transcriptWriter) heading(step sequence.Step) {
	if step.Title != "" {
		w.printf("%s\n", step.Title)
	}
}

func (w *transcriptWriter) data(lines []string) {
	for _, line := range lines {
		w.printf("  %s\n", line)
	}
}

func transcriptBar(percent, width int) string {
	filled := percent * width / 100
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}
