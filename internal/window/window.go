// Package window is an in-memory model of browsing contexts: top-level
// windows, popups that remember their opener, and named child frames.
// It stands in for a real host environment wherever a child needs one.
package window

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	ErrDuplicateFrame  = errors.New("frame name already in use")
	ErrInvalidSize     = errors.New("invalid window size")
	ErrAlreadyParented = errors.New("window already has a parent")
)

// Window is one context. It satisfies transport.Handle.
type Window struct {
	id   string
	name string

	mu          sync.RWMutex
	parent      *Window
	opener      *Window
	frames      map[string]*Window
	location    string
	navigations []string
	width       int
	height      int
	focused     bool
}

// Option configures a Window at creation.
type Option func(*Window)

// WithName sets the name a parent uses to find this window among its frames.
func WithName(name string) Option {
	return func(w *Window) {
		w.name = name
	}
}

// WithLocation sets the initial location without recording a navigation.
func WithLocation(url string) Option {
	return func(w *Window) {
		w.location = url
	}
}

// WithSize sets the initial surface size.
func WithSize(width, height int) Option {
	return func(w *Window) {
		w.width = width
		w.height = height
	}
}

// New creates a detached window. The name defaults to the id.
func New(id string, opts ...Option) *Window {
	w := &Window{
		id:     id,
		name:   id,
		frames: make(map[string]*Window),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Window) ID() string { return w.id }

func (w *Window) Name() string { return w.name }

func (w *Window) String() string {
	return fmt.Sprintf("window(%s)", w.id)
}

// AddFrame embeds child in w under the child's name.
func (w *Window) AddFrame(child *Window) error {
	if child == nil || child == w {
		return errors.New("invalid frame")
	}

	child.mu.Lock()
	if child.parent != nil {
		child.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyParented, child.id)
	}
	child.parent = w
	child.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.frames[child.name]; exists {
		child.mu.Lock()
		child.parent = nil
		child.mu.Unlock()
		return fmt.Errorf("%w: %s in %s", ErrDuplicateFrame, child.name, w.id)
	}
	w.frames[child.name] = child
	return nil
}

// Open records w as the opener of popup.
func (w *Window) Open(popup *Window) {
	popup.mu.Lock()
	popup.opener = w
	popup.mu.Unlock()
}

// Parent returns the enclosing window, or nil for a top-level window.
func (w *Window) Parent() *Window {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.parent
}

// Opener returns the window that opened this popup, if any.
func (w *Window) Opener() *Window {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.opener
}

// Frame finds a direct child frame by name, then by id.
func (w *Window) Frame(name string) (*Window, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if f, ok := w.frames[name]; ok {
		return f, true
	}
	for _, f := range w.frames {
		if f.id == name {
			return f, true
		}
	}
	return nil, false
}

// Frames returns the direct child frames ordered by name.
func (w *Window) Frames() []*Window {
	w.mu.RLock()
	out := make([]*Window, 0, len(w.frames))
	for _, f := range w.frames {
		out = append(out, f)
	}
	w.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Window) int {
		return strings.Compare(a.name, b.name)
	})
	return out
}

// Navigate sets the location and records the navigation.
func (w *Window) Navigate(url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.location = url
	w.navigations = append(w.navigations, url)
}

func (w *Window) Location() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.location
}

// Navigations lists every URL this window was navigated to, oldest first.
func (w *Window) Navigations() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.navigations)
}

// ResizeTo changes the surface size.
func (w *Window) ResizeTo(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width = width
	w.height = height
	return nil
}

func (w *Window) Size() (width, height int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.width, w.height
}

func (w *Window) Focus() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused = true
}

func (w *Window) Focused() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.focused
}
