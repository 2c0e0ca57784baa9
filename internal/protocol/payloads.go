package protocol

import (
	"fmt"
	"maps"
	"math"
	"strings"
)

// InitReply is the parent's answer to INIT.
type InitReply struct {
	// ParentID names one of the replying context's frames that is the real
	// endpoint for this child. Empty when the replier is the endpoint.
	ParentID string
	Context  DisplayContext
	Props    map[string]any
}

// Encode returns the wire form.
func (r InitReply) Encode() map[string]any {
	out := map[string]any{
		"context": string(r.Context),
		"props":   copyMap(r.Props),
	}
	if r.ParentID != "" {
		out["parentId"] = r.ParentID
	}
	return out
}

// DecodeInitReply validates and converts an INIT reply.
func DecodeInitReply(data map[string]any) (InitReply, error) {
	var reply InitReply

	parentID, err := optionalString(data, "parentId")
	if err != nil {
		return InitReply{}, err
	}
	reply.ParentID = parentID

	raw, err := optionalString(data, "context")
	if err != nil {
		return InitReply{}, err
	}
	reply.Context, err = ParseDisplayContext(raw)
	if err != nil {
		return InitReply{}, err
	}

	reply.Props, err = optionalMap(data, "props")
	if err != nil {
		return InitReply{}, err
	}
	return reply, nil
}

// PropsUpdate carries new or changed props from the parent.
type PropsUpdate struct {
	Props map[string]any
}

func (p PropsUpdate) Encode() map[string]any {
	return map[string]any{"props": copyMap(p.Props)}
}

func DecodePropsUpdate(data map[string]any) (PropsUpdate, error) {
	props, err := optionalMap(data, "props")
	if err != nil {
		return PropsUpdate{}, err
	}
	return PropsUpdate{Props: props}, nil
}

// Resize is a surface size in pixels.
type Resize struct {
	Width  int
	Height int
}

func (r Resize) Encode() map[string]any {
	return map[string]any{"width": r.Width, "height": r.Height}
}

func (r Resize) Validate() error {
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidPayload, r.Width, r.Height)
	}
	return nil
}

func DecodeResize(data map[string]any) (Resize, error) {
	width, err := requiredInt(data, "width")
	if err != nil {
		return Resize{}, err
	}
	height, err := requiredInt(data, "height")
	if err != nil {
		return Resize{}, err
	}
	r := Resize{Width: width, Height: height}
	return r, r.Validate()
}

// Redirect asks the parent to navigate.
type Redirect struct {
	URL string
}

func (r Redirect) Encode() map[string]any {
	return map[string]any{"url": r.URL}
}

func (r Redirect) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidPayload)
	}
	return nil
}

func DecodeRedirect(data map[string]any) (Redirect, error) {
	url, err := optionalString(data, "url")
	if err != nil {
		return Redirect{}, err
	}
	r := Redirect{URL: url}
	return r, r.Validate()
}

// RedirectReply is the optional acknowledgement of a REDIRECT. Anything
// other than navigated=true means the parent did not move.
type RedirectReply struct {
	Navigated bool
}

func (r RedirectReply) Encode() map[string]any {
	return map[string]any{"navigated": r.Navigated}
}

// DecodeRedirectReply never fails: an absent or malformed flag reads as false.
func DecodeRedirectReply(data map[string]any) RedirectReply {
	navigated, _ := data["navigated"].(bool)
	return RedirectReply{Navigated: navigated}
}

func optionalString(data map[string]any, key string) (string, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidPayload, key, v)
	}
	return s, nil
}

func optionalMap(data map[string]any, key string) (map[string]any, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a mapping, got %T", ErrInvalidPayload, key, v)
	}
	return copyMap(m), nil
}

func requiredInt(data map[string]any, key string) (int, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidPayload, key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return 0, fmt.Errorf("%w: %s out of range: %d", ErrInvalidPayload, key, n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %s must be a whole number, got %v", ErrInvalidPayload, key, n)
		}
		// float64(math.MaxInt) rounds up to 2^63, which does not fit
		if n >= float64(math.MaxInt) || n < float64(math.MinInt) {
			return 0, fmt.Errorf("%w: %s out of range: %v", ErrInvalidPayload, key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidPayload, key, v)
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	maps.Copy(out, m)
	return out
}
