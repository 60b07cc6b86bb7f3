// Package controller mediates between user events and the document session.
// It serializes one outstanding operation at a time, owns the session state
// and the transcript, and fans completion results out to subscribers.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docchatgo/internal/models"
)

var (
	// ErrBusy rejects a new dispatch while an operation is outstanding.
	ErrBusy = errors.New("an operation is already in progress")
	// ErrNotReady rejects questions while no document is ready.
	ErrNotReady = errors.New("please upload a PDF first")
	// ErrEmptyQuestion rejects questions that are empty after trimming.
	ErrEmptyQuestion = errors.New("question cannot be empty")
)

const (
	thinkingText = "Thinking..."
	welcomeText  = "Welcome to the document chatbot.\n\n1. Select and upload a PDF.\n2. Ask a question about the entire document."

	labelNoDocument   = "No PDF loaded."
	labelReady        = "PDF Ready! Ask your questions."
	labelUploadFailed = "Error uploading PDF. Please try again."
)

// DocumentOps is the slice of the document session the controller drives.
type DocumentOps interface {
	Upload(ctx context.Context, path, displayName string) error
	Ask(ctx context.Context, question string) (string, error)
}

// Controller is the interaction state machine. All mutation happens under mu;
// workers run to completion off the calling goroutine, one at a time.
type Controller struct {
	session DocumentOps
	logger  *slog.Logger

	mu         sync.Mutex
	state      models.SessionState
	document   string
	transcript []models.Entry
	busy       bool

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// New builds a controller in the Empty state with a seeded welcome line.
func New(session DocumentOps, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		session:  session,
		logger:   logger,
		state:    models.StateEmpty,
		document: labelNoDocument,
		subs:     make(map[chan Event]struct{}),
	}
	c.transcript = append(c.transcript, models.Entry{
		ID:        uuid.NewString(),
		Role:      models.RoleSystem,
		Content:   welcomeText,
		CreatedAt: time.Now().UTC(),
	})
	return c
}

// Snapshot returns the current state, document label, and a copy of the
// transcript for initial page loads.
func (c *Controller) Snapshot() (models.SessionState, string, []models.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]models.Entry, len(c.transcript))
	copy(entries, c.transcript)
	return c.state, c.document, entries
}

// UploadDocument transitions to Uploading and dispatches a worker that sends
// the staged file to the provider. The staged file is removed once the worker
// finishes, win or lose. Returns ErrBusy while another operation is
// outstanding.
func (c *Controller) UploadDocument(displayName, stagedPath string) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.setStateLocked(models.StateUploading)
	c.setDocumentLocked(fmt.Sprintf("Uploading: %s...", displayName))
	c.appendLocked(models.RoleSystem, fmt.Sprintf("--- Uploading %s... ---", displayName), false)
	c.mu.Unlock()

	go c.runUpload(displayName, stagedPath)
	return nil
}

func (c *Controller) runUpload(displayName, stagedPath string) {
	// Workers run to completion; there is no cancellation path.
	err := c.session.Upload(context.Background(), stagedPath, displayName)
	if removeErr := os.Remove(stagedPath); removeErr != nil && !os.IsNotExist(removeErr) {
		c.logger.Warn("remove staged file", "path", stagedPath, "error", removeErr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.logger.Warn("document upload failed", "display_name", displayName, "error", err)
		c.setStateLocked(models.StateUploadFailed)
		c.setDocumentLocked(labelUploadFailed)
		c.appendLocked(models.RoleSystem, "Error uploading PDF: "+err.Error(), false)
		return
	}
	c.setStateLocked(models.StateReady)
	c.setDocumentLocked(labelReady)
	c.appendLocked(models.RoleSystem, "PDF uploaded successfully. You can now ask questions.", false)
}

// SubmitQuestion validates the question, appends it with a pending answer
// placeholder, and dispatches a worker. Rejections leave state and transcript
// untouched.
func (c *Controller) SubmitQuestion(text string) error {
	question := strings.TrimSpace(text)
	if question == "" {
		return ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if !c.state.CanAsk() {
		c.mu.Unlock()
		return ErrNotReady
	}
	c.busy = true
	c.setStateLocked(models.StateAnswering)
	c.appendLocked(models.RoleUser, question, false)
	pending := c.appendLocked(models.RoleAssistant, thinkingText, true)
	c.mu.Unlock()

	go c.runQuestion(pending.ID, question)
	return nil
}

func (c *Controller) runQuestion(pendingID, question string) {
	answer, err := c.session.Ask(context.Background(), question)
	if err != nil {
		// Provider failures are displayed as the answer text, exactly as a
		// successful reply would be.
		c.logger.Warn("question failed", "error", err)
		answer = err.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.resolvePendingLocked(pendingID, answer)
	c.setStateLocked(models.StateReady)
}

// Subscribe registers an event channel. Events are dropped rather than
// blocking when a subscriber falls behind.
func (c *Controller) Subscribe() chan Event {
	ch := make(chan Event, 32)
	c.subMu.Lock()
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (c *Controller) Unsubscribe(ch chan Event) {
	c.subMu.Lock()
	if _, ok := c.subs[ch]; ok {
		delete(c.subs, ch)
		close(ch)
	}
	c.subMu.Unlock()
}

func (c *Controller) broadcast(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Warn("dropping event for slow subscriber", "type", ev.Type)
		}
	}
}

func (c *Controller) setStateLocked(state models.SessionState) {
	c.state = state
	c.broadcast(Event{Type: EventState, State: state})
}

func (c *Controller) setDocumentLocked(label string) {
	c.document = label
	c.broadcast(Event{Type: EventDocument, Document: label})
}

func (c *Controller) appendLocked(role models.Role, content string, pending bool) models.Entry {
	entry := models.Entry{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Pending:   pending,
		CreatedAt: time.Now().UTC(),
	}
	c.transcript = append(c.transcript, entry)
	c.broadcast(Event{Type: EventEntry, Entry: &entry})
	return entry
}

func (c *Controller) resolvePendingLocked(id, content string) {
	for i := range c.transcript {
		if c.transcript[i].ID == id {
			c.transcript[i].Content = content
			c.transcript[i].Pending = false
			entry := c.transcript[i]
			c.broadcast(Event{Type: EventReplace, Entry: &entry})
			return
		}
	}
	c.logger.Warn("pending entry vanished", "id", id)
}
