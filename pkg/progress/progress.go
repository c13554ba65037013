// Package progress carries export progress events to whatever UI is
// listening. Sends never block: a slow or absent listener drops events
// rather than stalling the export.
package progress

import "fmt"

// Event is one progress update. Progress runs 0-100; a zero progress
// with an "Error: " message signals terminal failure.
type Event struct {
	Progress int
	Message  string
}

const bufferSize = 10

// Reporter fans export checkpoints into a buffered channel. A nil
// Reporter is valid and drops everything.
type Reporter struct {
	ch chan Event
}

func NewReporter() *Reporter {
	return &Reporter{ch: make(chan Event, bufferSize)}
}

// Events is the receive side for the listener.
func (r *Reporter) Events() <-chan Event {
	return r.ch
}

// Send emits a checkpoint, dropping it when the buffer is full.
func (r *Reporter) Send(progress int, message string) {
	if r == nil {
		return
	}
	select {
	case r.ch <- Event{Progress: progress, Message: message}:
	default:
	}
}

// Error emits the terminal failure event.
func (r *Reporter) Error(err error) {
	r.Send(0, fmt.Sprintf("Error: %v", err))
}

// Close ends the stream. Send must not be called afterwards.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	close(r.ch)
}
