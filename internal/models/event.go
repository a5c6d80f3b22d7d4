// Package models defines the records Awaken journals while presentations run.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes journal events.
type EventType string

const (
	// Sequence events
	EventTypeSequenceStarted  EventType = "sequence.started"
	EventTypeStepEntered      EventType = "sequence.step_entered"
	EventTypeFinalReached     EventType = "sequence.final_reached"
	EventTypeSequenceComplete EventType = "sequence.completed"
	EventTypeSequenceTornDown EventType = "sequence.torn_down"

	// Visibility events
	EventTypeGateTriggered EventType = "gate.triggered"

	// Ambient audio events
	EventTypeAmbientStarted EventType = "ambient.started"
	EventTypeAmbientStopped EventType = "ambient.stopped"
)

// Event is an append-only journal entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// Script is the presentation script the event belongs to.
	Script string `json:"script"`

	// RunID identifies one activation of a sequencer.
	RunID string `json:"run_id,omitempty"`

	// Step is the step identifier, when the event relates to one.
	Step string `json:"step,omitempty"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(e.Script) == "" {
		validation.AddMessage("script", "script is required")
	}
	if e.Type == EventTypeStepEntered && strings.TrimSpace(e.Step) == "" {
		validation.AddMessage("step", "step is required for step events")
	}
	return validation.Err()
}

// StepEnteredPayload is the payload for sequence.step_entered events.
type StepEnteredPayload struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Cue   string `json:"cue,omitempty"`
}

// TornDownPayload is the payload for sequence.torn_down events.
type TornDownPayload struct {
	LastStep  string `json:"last_step,omitempty"`
	Completed bool   `json:"completed"`
}

// GateTriggeredPayload is the payload for gate.triggered events.
type GateTriggeredPayload struct {
	Ratio    float64 `json:"ratio"`
	TimedOut bool    `json:"timed_out,omitempty"`
}
