// Package events fans reading lifecycle events out to websocket subscribers.
package events

import (
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
)

// Event types
const (
	TypeSessionStarted  = "session.started"
	TypeSessionEnded    = "session.ended"
	TypeProgressUpdated = "progress.updated"
	TypeBookCompleted   = "book.completed"
)

// Event is one lifecycle change of a (user, book) pair.
type Event struct {
	Type     string                 `json:"type"`
	UserID   uint                   `json:"userId"`
	BookID   uint                   `json:"bookId"`
	Session  *models.ReadingSession `json:"session,omitempty"`
	Progress *models.Progress       `json:"progress,omitempty"`
	At       time.Time              `json:"at"`
}

// Publisher accepts events without blocking the caller.
type Publisher interface {
	Publish(Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}
