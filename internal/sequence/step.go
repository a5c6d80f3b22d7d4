// Package sequence drives scripted presentations: an ordered, one-shot list
// of timed steps with typing effects and sound cues, cancellable at any
// resumption point.
package sequence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opencode-ai/awaken/internal/sound"
)

// Kind is the tagged variant of a step. Drivers and views dispatch on it.
type Kind string

const (
	KindLoading   Kind = "loading"
	KindAlert     Kind = "alert"
	KindTypedText Kind = "typed_text"
	KindStatic    Kind = "static"
	KindTerminal  Kind = "terminal"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindLoading, KindAlert, KindTypedText, KindStatic, KindTerminal:
		return true
	}
	return false
}

// Script errors.
var (
	ErrEmptyScript       = errors.New("script has no steps")
	ErrDuplicateStep     = errors.New("duplicate step id")
	ErrTerminalPlacement = errors.New("script needs exactly one terminal step, placed last")
	ErrInvalidStep       = errors.New("invalid step")
)

// DefaultMaxLines is how many boot lines a loading step keeps on screen.
const DefaultMaxLines = 5

// Progress animates a loading bar from 0 to 100.
type Progress struct {
	// Increment is added every Interval.
	Increment int
	Interval  time.Duration
	// TickEvery fires TickCue whenever the value is a multiple of it.
	TickEvery int
	TickCue   sound.Cue
}

func (p Progress) enabled() bool {
	return p.Interval > 0 && p.Increment > 0
}

// Step is one stage of a presentation.
type Step struct {
	ID    string
	Kind  Kind
	Title string
	// Cue plays when the step is entered.
	Cue sound.Cue
	// Hold is how long the step stays on screen after its own animation.
	Hold time.Duration

	// Text is revealed one rune per TypeInterval on typed steps. TypeCue
	// plays for every non-whitespace rune.
	Text         string
	TypeInterval time.Duration
	TypeCue      sound.Cue

	// Progress, Lines and LineInterval drive loading steps.
	Progress     Progress
	Lines        []string
	LineInterval time.Duration
	MaxLines     int

	// Data is static content the view shows with the step.
	Data []string

	// AwaitConfirm makes a terminal step wait for Confirm before completing.
	// Action labels the control that confirms.
	AwaitConfirm bool
	ConfirmCue   sound.Cue
	Action       string
}

func (s Step) clone() Step {
	s.Lines = append([]string(nil), s.Lines...)
	s.Data = append([]string(nil), s.Data...)
	return s
}

func (s Step) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidStep)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("%w: step %q has unknown kind %q", ErrInvalidStep, s.ID, s.Kind)
	}
	if s.Hold < 0 {
		return fmt.Errorf("%w: step %q has negative hold", ErrInvalidStep, s.ID)
	}

	switch s.Kind {
	case KindTypedText:
		if s.Text == "" {
			return fmt.Errorf("%w: typed step %q needs text", ErrInvalidStep, s.ID)
		}
		if s.TypeInterval <= 0 {
			return fmt.Errorf("%w: typed step %q needs a positive type interval", ErrInvalidStep, s.ID)
		}
	case KindLoading:
		if s.Progress.Interval < 0 || s.Progress.Increment < 0 {
			return fmt.Errorf("%w: loading step %q has negative progress", ErrInvalidStep, s.ID)
		}
		// A loading step without a bar is a timed boot screen; a bar needs both.
		if (s.Progress.Interval > 0) != (s.Progress.Increment > 0) {
			return fmt.Errorf("%w: loading step %q needs a positive progress increment and interval", ErrInvalidStep, s.ID)
		}
		if len(s.Lines) > 0 && s.LineInterval <= 0 {
			return fmt.Errorf("%w: loading step %q has lines but no line interval", ErrInvalidStep, s.ID)
		}
	case KindTerminal:
		if s.Hold != 0 {
			return fmt.Errorf("%w: terminal step %q cannot hold", ErrInvalidStep, s.ID)
		}
	}
	return nil
}

// Script is an immutable, validated list of steps.
type Script struct {
	name  string
	steps []Step
}

// NewScript validates steps and copies them into a Script.
func NewScript(name string, steps ...Step) (Script, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Script{}, errors.New("script name is required")
	}
	if len(steps) == 0 {
		return Script{}, ErrEmptyScript
	}

	seen := make(map[string]struct{}, len(steps))
	copied := make([]Step, 0, len(steps))
	for i, step := range steps {
		if err := step.validate(); err != nil {
			return Script{}, fmt.Errorf("script %q step %d: %w", name, i+1, err)
		}
		if _, exists := seen[step.ID]; exists {
			return Script{}, fmt.Errorf("script %q: %w %q", name, ErrDuplicateStep, step.ID)
		}
		seen[step.ID] = struct{}{}
		if step.Kind == KindTerminal && i != len(steps)-1 {
			return Script{}, fmt.Errorf("script %q: %w", name, ErrTerminalPlacement)
		}
		if step.Kind == KindLoading && step.MaxLines <= 0 {
			step.MaxLines = DefaultMaxLines
		}
		copied = append(copied, step.clone())
	}
	if copied[len(copied)-1].Kind != KindTerminal {
		return Script{}, fmt.Errorf("script %q: %w", name, ErrTerminalPlacement)
	}

	return Script{name: name, steps: copied}, nil
}

// MustScript is NewScript for scripts known to be valid at init time.
func MustScript(name string, steps ...Step) Script {
	script, err := NewScript(name, steps...)
	if err != nil {
		panic(err)
	}
	return script
}

// Name returns the script name.
func (s Script) Name() string { return s.name }

// Len returns the number of steps.
func (s Script) Len() int { return len(s.steps) }

// Step returns a copy of the step at index i.
func (s Script) Step(i int) Step { return s.steps[i].clone() }

// Steps returns a copy of every step.
func (s Script) Steps() []Step {
	out := make([]Step, len(s.steps))
	for i, step := range s.steps {
		out[i] = step.clone()
	}
	return out
}

// Index returns the position of the step with id, or -1.
func (s Script) Index(id string) int {
	for i, step := range s.steps {
		if step.ID == id {
			return i
		}
	}
	return -1
}
