package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// sseWriter frames stream events as server-sent events and flushes
// after each one so tokens reach the client as they are produced.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) Emit(ev domain.StreamEvent) error {
	payload, err := eventPayload(ev)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sse event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Kind, raw); err != nil {
		return fmt.Errorf("write sse event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

func eventPayload(ev domain.StreamEvent) (any, error) {
	switch ev.Kind {
	case domain.EventToken:
		return map[string]string{"token": ev.Token}, nil
	case domain.EventMeta:
		return ev.Meta, nil
	case domain.EventDone:
		return ev.Done, nil
	case domain.EventError:
		return ev.Err, nil
	default:
		return nil, fmt.Errorf("unknown stream event kind %q", ev.Kind)
	}
}
