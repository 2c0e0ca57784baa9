// Package transport holds the contracts shared by every message channel
// implementation: the addressable context handle, inbound handlers, and
// the error values a channel reports to its callers.
package transport

import (
	"context"
	"fmt"
)

// Handle identifies one isolated context (a window, a frame, a process)
// that can send and receive messages. Two handles refer to the same
// context when their IDs are equal.
type Handle interface {
	ID() string
}

// Handler processes one inbound message. The returned map is sent back to
// the requester as the reply; it is ignored for one-way posts. A returned
// error is delivered to the requester as a *RemoteError.
type Handler func(ctx context.Context, source Handle, data map[string]any) (map[string]any, error)

// SameContext reports whether two handles refer to the same context.
func SameContext(a, b Handle) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// RemoteError is returned to a requester when the receiving handler failed.
type RemoteError struct {
	Target  string
	Type    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote handler %q on %q failed: %s", e.Type, e.Target, e.Message)
}
