package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Writer frames run events onto an HTTP response as server-sent
// events. Headers are set and flushed on construction so the client
// sees the stream open before the first test case executes.
//
// Writer is used from a single goroutine (the run orchestrator loop);
// it is not safe for concurrent use.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter prepares w for event streaming and flushes the headers.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher}, nil
}

// Emit writes one JSON-framed event and flushes it immediately.
func (sw *Writer) Emit(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event frame: %w", err)
	}
	sw.flusher.Flush()
	return nil
}
