package store

import (
	"context"
	"fmt"

	"github.com/lucid-vigil/decoynet/pkg/event"
)

// Store is the append-only record sink shared by every honeypot session
// and read by the analysis engine. Append returns only after the record
// is durable and visible to subsequent readers. ReadAll returns a
// prefix of everything appended so far; malformed records are skipped,
// a missing stream reads as empty.
type Store interface {
	Append(ctx context.Context, stream event.Stream, ev event.Event) error
	ReadAll(stream event.Stream) ([]event.Event, error)
	Close() error
}

// AppendError marks a failed durable write. Sessions treat it as the
// one error kind worth surfacing: unlike peer I/O noise it means a
// captured event may have been lost.
type AppendError struct {
	Stream event.Stream
	Err    error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("append to stream %q failed: %v", e.Stream, e.Err)
}

func (e *AppendError) Unwrap() error {
	return e.Err
}
