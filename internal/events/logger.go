// Package events journals presentation activity.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opencode-ai/awaken/internal/models"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

// LogGateTriggered records that a visibility gate started a script.
func LogGateTriggered(ctx context.Context, repo Repository, script, runID string, ratio float64, timedOut bool) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if script == "" {
		return fmt.Errorf("script is required")
	}

	payload, err := json.Marshal(models.GateTriggeredPayload{
		Ratio:    ratio,
		TimedOut: timedOut,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal gate payload: %w", err)
	}

	return repo.Create(ctx, &models.Event{
		Type:    models.EventTypeGateTriggered,
		Script:  script,
		RunID:   runID,
		Payload: payload,
	})
}

// LogAmbient records the ambient drone turning on or off.
func LogAmbient(ctx context.Context, repo Repository, playing bool) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}

	eventType := models.EventTypeAmbientStopped
	if playing {
		eventType = models.EventTypeAmbientStarted
	}
	return repo.Create(ctx, &models.Event{
		Type:   eventType,
		Script: "ambient",
	})
}
