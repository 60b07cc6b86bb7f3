package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docchatgo/internal/controller"
	"docchatgo/internal/models"
)

const maxUploadBytes = 20 << 20 // 20 MB

// Interactions is the controller surface the HTTP layer drives.
type Interactions interface {
	UploadDocument(displayName, stagedPath string) error
	SubmitQuestion(text string) error
	Snapshot() (models.SessionState, string, []models.Entry)
	Subscribe() chan controller.Event
	Unsubscribe(ch chan controller.Event)
}

// Spooler stages an incoming upload on local disk.
type Spooler interface {
	Save(src io.Reader) (string, error)
}

// Handler wires HTTP routes to the interaction controller.
type Handler struct {
	ctrl  Interactions
	spool Spooler
}

// NewHandler constructs a Handler instance.
func NewHandler(ctrl Interactions, spool Spooler) *Handler {
	return &Handler{ctrl: ctrl, spool: spool}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.health)
	api := router.Group("/api")
	api.POST("/document", h.uploadDocument)
	api.POST("/question", h.submitQuestion)
	api.GET("/transcript", h.getTranscript)
	api.GET("/events", h.streamEvents)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Only PDFs may be uploaded; the page filters the picker the same way.
func isPDF(filename string, sniffed string) bool {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return false
	}
	return sniffed == "application/pdf"
}

func (h *Handler) uploadDocument(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	f.Close()
	contentType := http.DetectContentType(buf[:n])
	displayName := filepath.Base(file.Filename)
	if !isPDF(displayName, contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are supported"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	defer src.Close()
	stagedPath, err := h.spool.Save(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stage file failed"})
		return
	}

	if err := h.ctrl.UploadDocument(displayName, stagedPath); err != nil {
		if errors.Is(err, controller.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"state":     models.StateUploading,
		"file_name": displayName,
	})
}

type questionRequest struct {
	Question string `json:"question"`
}

func (h *Handler) submitQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.ctrl.SubmitQuestion(req.Question); err != nil {
		switch {
		case errors.Is(err, controller.ErrEmptyQuestion):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, controller.ErrBusy), errors.Is(err, controller.ErrNotReady):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"state": models.StateAnswering})
}

func (h *Handler) getTranscript(c *gin.Context) {
	state, document, entries := h.ctrl.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"state":      state,
		"document":   document,
		"transcript": entries,
	})
}

func (h *Handler) streamEvents(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sendEvent := func(event string, payload interface{}) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "event: %s\n", event); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// Replay the current state so a reconnecting page resynchronizes.
	state, document, _ := h.ctrl.Snapshot()
	if err := sendEvent(string(controller.EventState), controller.Event{Type: controller.EventState, State: state}); err != nil {
		return
	}
	if err := sendEvent(string(controller.EventDocument), controller.Event{Type: controller.EventDocument, Document: document}); err != nil {
		return
	}

	ch := h.ctrl.Subscribe()
	defer h.ctrl.Unsubscribe(ch)
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := sendEvent(string(ev.Type), ev); err != nil {
				return
			}
		}
	}
}
