package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/opencode-ai/awaken/internal/logging"
	"github.com/opencode-ai/awaken/internal/models"
	"github.com/opencode-ai/awaken/internal/sequence"
)

// Recorder turns sequencer events into journal entries. Journal failures
// are logged and otherwise ignored.
type Recorder struct {
	repo   Repository
	logger zerolog.Logger
}

// NewRecorder creates a recorder writing to repo.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, logger: logging.Component("journal")}
}

// Sink returns a sequence sink that journals each event before passing it
// to next, which may be nil.
func (r *Recorder) Sink(next sequence.Sink) sequence.Sink {
	return func(ctx context.Context, ev sequence.Event) {
		r.Record(ctx, ev)
		if next != nil {
			next(ctx, ev)
		}
	}
}

// Record journals a sequencer event. Per-rune and per-tick events are
// too chatty for the journal and are skipped.
func (r *Recorder) Record(ctx context.Context, ev sequence.Event) {
	event := &models.Event{
		Script:    ev.Script,
		RunID:     ev.RunID,
		Step:      ev.Step.ID,
		Timestamp: ev.At.UTC(),
	}

	switch ev.Type {
	case sequence.EventStarted:
		event.Type = models.EventTypeSequenceStarted
	case sequence.EventStep:
		event.Type = models.EventTypeStepEntered
		event.Payload = r.marshal(models.StepEnteredPayload{
			Index: ev.State.Index,
			Kind:  string(ev.Step.Kind),
			Cue:   string(ev.Step.Cue),
		})
	case sequence.EventFinal:
		event.Type = models.EventTypeFinalReached
	case sequence.EventComplete:
		event.Type = models.EventTypeSequenceComplete
	default:
		return
	}

	r.create(ctx, event)
}

// RecordTeardown journals the end of a run from the sequencer's final state.
func (r *Recorder) RecordTeardown(ctx context.Context, seq *sequence.Sequencer) {
	state := seq.State()
	r.create(ctx, &models.Event{
		Type:   models.EventTypeSequenceTornDown,
		Script: seq.Script().Name(),
		RunID:  seq.RunID(),
		Payload: r.marshal(models.TornDownPayload{
			LastStep:  state.Step,
			Completed: state.Completed,
		}),
	})
}

func (r *Recorder) marshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Debug().Err(err).Msg("failed to marshal journal payload")
		return nil
	}
	return data
}

func (r *Recorder) create(ctx context.Context, event *models.Event) {
	if r == nil || r.repo == nil {
		return
	}
	if err := r.repo.Create(ctx, event); err != nil {
		r.logger.Debug().Err(err).Str("event_type", string(event.Type)).Msg("failed to journal event")
	}
}
