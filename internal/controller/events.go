package controller

import "docchatgo/internal/models"

// EventType labels what a subscriber should do with an event.
type EventType string

const (
	// EventState announces a session state transition.
	EventState EventType = "state"
	// EventEntry appends a transcript entry.
	EventEntry EventType = "entry"
	// EventReplace resolves a pending transcript entry in place.
	EventReplace EventType = "replace"
	// EventDocument updates the document status label.
	EventDocument EventType = "document"
)

// Event is pushed to every subscriber when the controller changes state or
// the transcript.
type Event struct {
	Type     EventType           `json:"type"`
	State    models.SessionState `json:"state,omitempty"`
	Entry    *models.Entry       `json:"entry,omitempty"`
	Document string              `json:"document,omitempty"`
}
