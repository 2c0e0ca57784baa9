// Package protocol defines the messages exchanged between an embedded
// child and its parent, and converts their payloads between typed structs
// and the open maps a message channel carries.
package protocol

import (
	"fmt"
	"strings"
)

// Message types.
const (
	TypeInit     = "framelink.init"
	TypeProps    = "framelink.props"
	TypeClose    = "framelink.close"
	TypeResize   = "framelink.resize"
	TypeRedirect = "framelink.redirect"
)

// DisplayContext is how the parent is showing the child.
type DisplayContext string

const (
	ContextPopup  DisplayContext = "popup"
	ContextIframe DisplayContext = "iframe"
)

// ParseDisplayContext accepts the wire form of a display context,
// case-insensitively.
func ParseDisplayContext(s string) (DisplayContext, error) {
	switch DisplayContext(strings.ToLower(strings.TrimSpace(s))) {
	case ContextPopup:
		return ContextPopup, nil
	case ContextIframe:
		return ContextIframe, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDisplayContext, s)
	}
}

func (d DisplayContext) String() string {
	if d == "" {
		return "unknown"
	}
	return string(d)
}
