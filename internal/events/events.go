package events

import (
	"context"
	"sync"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/google/uuid"
)

type Type string

const (
	RoundGenerated      Type = "round_generated"
	RoundCompleted      Type = "round_completed"
	ResultSubmitted     Type = "result_submitted"
	StatusChanged       Type = "status_changed"
	RegistrationChanged Type = "registration_changed"
)

// Event is published after the transaction that caused it has committed.
type Event struct {
	Type         Type                   `json:"type"`
	TournamentID uuid.UUID              `json:"tournament_id"`
	Round        int                    `json:"round,omitempty"`
	MatchID      *uuid.UUID             `json:"match_id,omitempty"`
	Result       swiss.Result           `json:"result,omitempty"`
	Status       swiss.TournamentStatus `json:"status,omitempty"`
	At           time.Time              `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}

// Fanout hands each event to every publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) {
	for _, p := range f {
		p.Publish(ctx, e)
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists the recorded event types in publish order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
