package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriterSetsStreamHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	if _, err := NewWriter(rec); err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q", got)
	}
	if rec.Code != 200 {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestWriterEmitFramesEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := w.Emit(NewStartedEvent("run-1", []string{"tc-1"})); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := w.Emit(NewProgressEvent(0, 1, "tc-1")); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	body := rec.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	if len(frames) != 2 {
		t.Fatalf("got %d frames: %q", len(frames), body)
	}
	for _, frame := range frames {
		if !strings.HasPrefix(frame, "data: ") {
			t.Fatalf("frame %q lacks data prefix", frame)
		}
	}

	var started Envelope
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[0], "data: ")), &started); err != nil {
		t.Fatalf("unmarshal started frame: %v", err)
	}
	if started.Type != EventStarted || started.RunID != "run-1" {
		t.Errorf("started = %+v", started)
	}

	var progress Envelope
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[1], "data: ")), &progress); err != nil {
		t.Fatalf("unmarshal progress frame: %v", err)
	}
	if progress.Type != EventProgress || progress.Total != 1 || progress.CurrentTestCase != "tc-1" {
		t.Errorf("progress = %+v", progress)
	}
}

func TestWriterRoundTripsThroughScanner(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	events := []interface{}{
		NewStartedEvent("run-1", []string{"tc-1", "tc-2"}),
		NewProgressEvent(0, 2, "tc-1"),
		NewErrorEvent(errMarker{}, "run-1"),
	}
	for _, ev := range events {
		if err := w.Emit(ev); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}

	s := NewFrameScanner(strings.NewReader(rec.Body.String()))
	var types []EventType
	for s.Next() {
		var env Envelope
		if err := json.Unmarshal([]byte(s.Data()), &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		types = append(types, env.Type)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scanner error: %v", err)
	}

	want := []EventType{EventStarted, EventProgress, EventError}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("types[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}

type errMarker struct{}

func (errMarker) Error() string { return "boom" }
