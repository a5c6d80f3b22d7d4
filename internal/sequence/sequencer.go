package sequence

import (
	"context"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opencode-ai/awaken/internal/logging"
	"github.com/opencode-ai/awaken/internal/sound"
)

// EventType identifies what a sequencer event reports.
type EventType string

const (
	EventStarted  EventType = "started"
	EventStep     EventType = "step"
	EventText     EventType = "text"
	EventProgress EventType = "progress"
	EventLine     EventType = "line"
	EventFinal    EventType = "final"
	EventComplete EventType = "complete"
)

// Event is one observable transition. State is a snapshot taken when the
// transition was applied.
type Event struct {
	Type   EventType
	Script string
	RunID  string
	Step   Step
	State  State
	At     time.Time
}

// Sink receives events in order. It runs on the sequencer's goroutine, must
// return promptly once ctx is done, and must not call Teardown.
type Sink func(ctx context.Context, event Event)

// State is the presentation state exposed to views.
type State struct {
	// Step is the current step id; empty while idle.
	Step  string
	Index int
	Kind  Kind

	// Typed is the revealed prefix of the current or last typed step.
	Typed    string
	Progress int
	Lines    []string

	Started      bool
	Visible      bool
	FinalReached bool
	Completed    bool
	TornDown     bool
}

// Idle reports whether no step has been entered yet.
func (s State) Idle() bool { return s.Index < 0 }

func (s State) clone() State {
	s.Lines = append([]string(nil), s.Lines...)
	return s
}

// Options configures a Sequencer.
type Options struct {
	Clock Clock
	Cues  sound.Player
	Sink  Sink
	// OnReachFinalStep runs once when the terminal step is reached.
	OnReachFinalStep func()
	// OnComplete runs once when the sequence completes.
	OnComplete func()
	Logger     *zerolog.Logger
}

// Sequencer drives one Script through its steps exactly once per instance.
// Create a new Sequencer for every mount of the host view.
type Sequencer struct {
	script Script
	opts   Options
	runID  string
	logger zerolog.Logger

	mu        sync.Mutex
	state     State
	closed    bool
	confirmed bool
	ctx       context.Context
	cancel    context.CancelFunc

	// effectMu is held while a transition's effects run, so Teardown can
	// wait out an in-flight transition.
	effectMu sync.Mutex

	done     chan struct{}
	doneOnce sync.Once
}

// New creates an idle sequencer for script.
func New(script Script, opts Options) (*Sequencer, error) {
	if script.Len() == 0 {
		return nil, ErrEmptyScript
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Cues == nil {
		opts.Cues = sound.NoopPlayer{}
	}

	runID := uuid.NewString()
	logger := logging.Component("sequencer")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger = logger.With().Str("script", script.Name()).Str("run_id", runID).Logger()

	return &Sequencer{
		script: script,
		opts:   opts,
		runID:  runID,
		logger: logger,
		state:  State{Index: -1},
		done:   make(chan struct{}),
	}, nil
}

// Script returns the script being driven.
func (s *Sequencer) Script() Script { return s.script }

// RunID identifies this sequencer instance in events and logs.
func (s *Sequencer) RunID() string { return s.runID }

// State returns a snapshot of the current state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Done is closed when the driver stops: after completion, after reaching a
// terminal step that awaits confirmation, or after teardown.
func (s *Sequencer) Done() <-chan struct{} { return s.done }

// MarkVisible records that the host is on screen.
func (s *Sequencer) MarkVisible() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.state.Visible = true
	}
}

// Start begins the sequence. Only the first call on an instance does
// anything; it reports whether this call started the run. Canceling ctx
// tears the sequencer down.
func (s *Sequencer) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.state.Started || s.closed {
		s.mu.Unlock()
		return false
	}
	s.state.Started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	s.mu.Unlock()

	s.logger.Debug().Int("steps", s.script.Len()).Msg("sequence starting")
	go s.run(runCtx)
	return true
}

// Confirm is the user's explicit go-ahead at a terminal step that awaits
// it. It plays the confirm cue and completes the sequence. It reports
// whether this call completed the sequence.
func (s *Sequencer) Confirm() bool {
	s.mu.Lock()
	if s.closed || !s.state.FinalReached || s.state.Completed || s.confirmed {
		s.mu.Unlock()
		return false
	}
	terminal := s.script.steps[s.state.Index]
	if !terminal.AwaitConfirm {
		s.mu.Unlock()
		return false
	}
	s.confirmed = true
	ctx := s.ctx
	s.mu.Unlock()

	return s.complete(ctx, terminal)
}

// Teardown cancels all pending work. Once it returns no further event,
// callback, cue or state change happens. It is idempotent and must not be
// called from a Sink or callback.
func (s *Sequencer) Teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	started := s.state.Started
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	// Wait for an in-flight transition to finish its effects.
	s.effectMu.Lock()
	s.mu.Lock()
	s.state.TornDown = true
	last := s.state.Step
	completed := s.state.Completed
	s.mu.Unlock()
	s.effectMu.Unlock()

	if !started {
		s.closeDone()
	}
	s.logger.Debug().Str("last_step", last).Bool("completed", completed).Msg("sequence torn down")
}

func (s *Sequencer) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

// apply is the single path through which transitions happen. It mutates
// state, then runs effects and emits ev, all while holding effectMu. It
// returns false, doing nothing, once the sequencer is torn down.
func (s *Sequencer) apply(ctx context.Context, eventType EventType, step Step, mutate func(*State), effects func()) bool {
	s.effectMu.Lock()
	defer s.effectMu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return false
	}

	s.mu.Lock()
	// A sequence completes at most once.
	if s.closed || (eventType == EventComplete && s.state.Completed) {
		s.mu.Unlock()
		return false
	}
	if mutate != nil {
		mutate(&s.state)
	}
	snapshot := s.state.clone()
	s.mu.Unlock()

	if effects != nil {
		effects()
	}
	if s.opts.Sink != nil {
		s.opts.Sink(ctx, Event{
			Type:   eventType,
			Script: s.script.Name(),
			RunID:  s.runID,
			Step:   step,
			State:  snapshot,
			At:     s.opts.Clock.Now(),
		})
	}
	return true
}

func (s *Sequencer) run(ctx context.Context) {
	defer func() {
		if ctx.Err() != nil {
			s.Teardown()
		}
		s.closeDone()
	}()

	if !s.apply(ctx, EventStarted, Step{}, nil, nil) {
		return
	}

	for i, step := range s.script.steps {
		if !s.advanceTo(ctx, i, step) {
			return
		}

		var ok bool
		switch step.Kind {
		case KindLoading:
			ok = s.runLoading(ctx, step)
		case KindTypedText:
			ok = s.runTyped(ctx, step) && s.sleep(ctx, step.Hold)
		case KindTerminal:
			s.reachFinal(ctx, step)
			return
		default:
			ok = s.sleep(ctx, step.Hold)
		}
		if !ok {
			return
		}
	}
}

// advanceTo enters step i and plays its cue exactly once.
func (s *Sequencer) advanceTo(ctx context.Context, i int, step Step) bool {
	ok := s.apply(ctx, EventStep, step, func(st *State) {
		st.Step = step.ID
		st.Index = i
		st.Kind = step.Kind
		switch step.Kind {
		case KindTypedText:
			st.Typed = ""
		case KindLoading:
			st.Progress = 0
			st.Lines = nil
		}
	}, func() {
		s.cue(step.Cue)
	})
	if ok {
		s.logger.Debug().Str("step", step.ID).Int("index", i).Str("kind", string(step.Kind)).Msg("step entered")
	}
	return ok
}

func (s *Sequencer) runTyped(ctx context.Context, step Step) bool {
	for prefix := range Type(ctx, s.opts.Clock, step.Text, step.TypeInterval) {
		last, _ := utf8.DecodeLastRuneInString(prefix)
		ok := s.apply(ctx, EventText, step, func(st *State) {
			st.Typed = prefix
		}, func() {
			if !unicode.IsSpace(last) {
				s.cue(step.TypeCue)
			}
		})
		if !ok {
			return false
		}
	}
	return ctx.Err() == nil
}

// loadingEvent is a scheduled progress tick or boot line inside a loading step.
type loadingEvent struct {
	at       time.Duration
	progress int
	line     string
	isLine   bool
}

// loadingSchedule merges progress ticks and boot lines into one timeline
// and returns it with the step's total duration. Progress ticks land at
// 0, Interval, 2*Interval... up to 100; the step then waits one more
// interval plus Hold. Lines arrive every LineInterval while the step lasts.
func loadingSchedule(step Step) ([]loadingEvent, time.Duration) {
	var events []loadingEvent
	var end time.Duration

	if step.Progress.enabled() {
		var at time.Duration
		for value := 0; ; value += step.Progress.Increment {
			if value > 100 {
				value = 100
			}
			events = append(events, loadingEvent{at: at, progress: value})
			at += step.Progress.Interval
			if value == 100 {
				break
			}
		}
		end = at
	}
	end += step.Hold

	for k, line := range step.Lines {
		at := time.Duration(k+1) * step.LineInterval
		if at >= end {
			break
		}
		events = append(events, loadingEvent{at: at, line: line, isLine: true})
	}

	// Stable merge: progress before lines at the same instant.
	merged := make([]loadingEvent, 0, len(events))
	for len(events) > 0 {
		best := 0
		for i, ev := range events {
			if ev.at < events[best].at || (ev.at == events[best].at && !ev.isLine && events[best].isLine) {
				best = i
			}
		}
		merged = append(merged, events[best])
		events = append(events[:best], events[best+1:]...)
	}
	return merged, end
}

func (s *Sequencer) runLoading(ctx context.Context, step Step) bool {
	schedule, end := loadingSchedule(step)

	var elapsed time.Duration
	for _, ev := range schedule {
		if !s.sleep(ctx, ev.at-elapsed) {
			return false
		}
		elapsed = ev.at

		var ok bool
		if ev.isLine {
			line := ev.line
			ok = s.apply(ctx, EventLine, step, func(st *State) {
				st.Lines = append(st.Lines, line)
				if len(st.Lines) > step.MaxLines {
					st.Lines = st.Lines[len(st.Lines)-step.MaxLines:]
				}
			}, nil)
		} else {
			value := ev.progress
			ok = s.apply(ctx, EventProgress, step, func(st *State) {
				st.Progress = value
			}, func() {
				if step.Progress.TickEvery > 0 && value%step.Progress.TickEvery == 0 {
					s.cue(step.Progress.TickCue)
				}
			})
		}
		if !ok {
			return false
		}
	}
	return s.sleep(ctx, end-elapsed)
}

func (s *Sequencer) reachFinal(ctx context.Context, step Step) {
	ok := s.apply(ctx, EventFinal, step, func(st *State) {
		st.FinalReached = true
	}, func() {
		if s.opts.OnReachFinalStep != nil {
			s.opts.OnReachFinalStep()
		}
	})
	if !ok {
		return
	}
	s.logger.Debug().Str("step", step.ID).Bool("await_confirm", step.AwaitConfirm).Msg("final step reached")
	if !step.AwaitConfirm {
		s.complete(ctx, step)
	}
}

func (s *Sequencer) complete(ctx context.Context, step Step) bool {
	ok := s.apply(ctx, EventComplete, step, func(st *State) {
		st.Completed = true
	}, func() {
		if step.AwaitConfirm {
			s.cue(step.ConfirmCue)
		}
		if s.opts.OnComplete != nil {
			s.opts.OnComplete()
		}
	})
	if ok {
		s.logger.Debug().Msg("sequence completed")
	}
	return ok
}

// sleep waits d on the clock. It reports false if ctx ended first.
func (s *Sequencer) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-s.opts.Clock.After(d):
		return ctx.Err() == nil
	}
}

// cue plays a sound cue. Audio failures never interrupt the sequence.
func (s *Sequencer) cue(cue sound.Cue) {
	if cue == sound.CueNone {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug().Interface("panic", r).Str("cue", string(cue)).Msg("sound cue failed")
		}
	}()
	s.opts.Cues.Play(cue)
}
