package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opencode-ai/awaken/internal/models"
)

// DefaultJournalSize bounds the in-memory journal.
const DefaultJournalSize = 256

// prepare validates event and fills in its ID and timestamp.
func prepare(event *models.Event) error {
	if event == nil {
		return errors.New("event is required")
	}
	if err := event.Validate(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return nil
}

// MemoryRepository keeps the most recent events in memory.
type MemoryRepository struct {
	mu     sync.Mutex
	limit  int
	events []models.Event
}

// NewMemoryRepository creates a journal holding up to limit events.
func NewMemoryRepository(limit int) *MemoryRepository {
	if limit <= 0 {
		limit = DefaultJournalSize
	}
	return &MemoryRepository{limit: limit}
}

// Create appends event, dropping the oldest entry when full.
func (r *MemoryRepository) Create(ctx context.Context, event *models.Event) error {
	if err := prepare(event); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	if over := len(r.events) - r.limit; over > 0 {
		r.events = append(r.events[:0:0], r.events[over:]...)
	}
	return nil
}

// List returns journaled events, oldest first.
func (r *MemoryRepository) List() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Event(nil), r.events...)
}

// ListByRun returns the events of one sequencer run.
func (r *MemoryRepository) ListByRun(runID string) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, event := range r.events {
		if event.RunID == runID {
			out = append(out, event)
		}
	}
	return out
}

// LogRepository writes events to a zerolog logger.
type LogRepository struct {
	logger zerolog.Logger
}

// NewLogRepository creates a repository backed by logger.
func NewLogRepository(logger zerolog.Logger) *LogRepository {
	return &LogRepository{logger: logger}
}

// Create logs event at info level.
func (r *LogRepository) Create(ctx context.Context, event *models.Event) error {
	if err := prepare(event); err != nil {
		return err
	}

	entry := r.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("script", event.Script).
		Time("at", event.Timestamp)
	if event.RunID != "" {
		entry = entry.Str("run_id", event.RunID)
	}
	if event.Step != "" {
		entry = entry.Str("step", event.Step)
	}
	if len(event.Payload) > 0 {
		entry = entry.RawJSON("payload", event.Payload)
	}
	if len(event.Metadata) > 0 {
		entry = entry.Interface("metadata", event.Metadata)
	}
	entry.Msg("journal")
	return nil
}

type multiRepository []Repository

// Tee writes every event to each repository in turn. All repositories see
// the event even if one fails; the errors are joined.
func Tee(repos ...Repository) Repository {
	return multiRepository(repos)
}

func (m multiRepository) Create(ctx context.Context, event *models.Event) error {
	if err := prepare(event); err != nil {
		return err
	}
	var errs []error
	for _, repo := range m {
		if err := repo.Create(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
