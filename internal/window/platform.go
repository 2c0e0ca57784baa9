package window

import (
	"fmt"

	"github.com/atlanticdynamic/framelink/internal/transport"
)

// Platform exposes one window's surroundings to the child running in it.
type Platform struct {
	self *Window
}

// NewPlatform returns the platform view of self.
func NewPlatform(self *Window) *Platform {
	return &Platform{self: self}
}

// Self returns the window the child runs in.
func (p *Platform) Self() *Window {
	return p.self
}

// Parent returns the context that owns this one: the opener of a popup,
// otherwise the enclosing window of a frame.
func (p *Platform) Parent() (transport.Handle, bool) {
	if opener := p.self.Opener(); opener != nil {
		return opener, true
	}
	parent := p.self.Parent()
	if parent == nil {
		return nil, false
	}
	return parent, true
}

func (p *Platform) Opener() (transport.Handle, bool) {
	opener := p.self.Opener()
	if opener == nil {
		return nil, false
	}
	return opener, true
}

// Frame looks up a named frame inside from. Only handles produced by this
// package can be searched.
func (p *Platform) Frame(from transport.Handle, id string) (transport.Handle, bool) {
	w, ok := from.(*Window)
	if !ok || w == nil {
		return nil, false
	}
	f, ok := w.Frame(id)
	if !ok {
		return nil, false
	}
	return f, true
}

func (p *Platform) ResizeTo(width, height int) error {
	return p.self.ResizeTo(width, height)
}

func (p *Platform) Focus() {
	p.self.Focus()
}

func (p *Platform) Navigate(target transport.Handle, url string) error {
	w, ok := target.(*Window)
	if !ok || w == nil {
		return fmt.Errorf("%w: cannot navigate %v", transport.ErrUnknownContext, target)
	}
	w.Navigate(url)
	return nil
}
