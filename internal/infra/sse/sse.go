// Package sse writes Server-Sent Events to HTTP responses.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHeartbeatInterval is how often idle streams receive a comment line.
const DefaultHeartbeatInterval = 15 * time.Second

// Event is a single SSE frame: "event: <Type>\n[id: <ID>\n]data: <json>\n\n".
type Event struct {
	Type string
	ID   string
	Data any
}

// SetHeaders prepares a response for streaming.
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Write encodes event to w and flushes when w supports it.
func Write(w io.Writer, event Event) error {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if event.Type != "" {
		if _, err = fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
			return fmt.Errorf("write event type: %w", err)
		}
	}
	if event.ID != "" {
		if _, err = fmt.Fprintf(w, "id: %s\n", event.ID); err != nil {
			return fmt.Errorf("write event id: %w", err)
		}
	}
	if _, err = fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event data: %w", err)
	}

	flush(w)
	return nil
}

// WriteHeartbeat writes a comment frame that clients ignore.
func WriteHeartbeat(w io.Writer, now time.Time) error {
	if _, err := fmt.Fprintf(w, ": heartbeat %s\n\n", now.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	flush(w)
	return nil
}

func flush(w io.Writer) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
