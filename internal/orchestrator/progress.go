package orchestrator

import "fmt"

// ProgressEvent reports batch progress after each batch completes: how many
// files have been processed out of the total scheduled.
type ProgressEvent struct {
	Processed int
	Total     int

	// Advisory carries the one-time provider-unavailability notice. Empty
	// on ordinary progress events.
	Advisory string
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
		// Drop the event if the channel is full.
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	if event.Advisory != "" {
		return fmt.Sprintf("  ! %s", event.Advisory)
	}
	return fmt.Sprintf("  ● %d/%d files", event.Processed, event.Total)
}
