package mocks

import (
	"github.com/atlanticdynamic/framelink/internal/transport"
	"github.com/stretchr/testify/mock"
)

// Platform is a mock implementation of the child's host environment.
type Platform struct {
	mock.Mock
}

// NewPlatform creates a Platform mock whose Parent returns parent. A nil
// parent models a context with no enclosing window.
func NewPlatform(parent transport.Handle) *Platform {
	p := &Platform{}
	p.On("Parent").Return(parent, parent != nil).Maybe()
	return p
}

func (p *Platform) Parent() (transport.Handle, bool) {
	args := p.Called()
	h, _ := args.Get(0).(transport.Handle)
	return h, args.Bool(1)
}

func (p *Platform) Opener() (transport.Handle, bool) {
	args := p.Called()
	h, _ := args.Get(0).(transport.Handle)
	return h, args.Bool(1)
}

func (p *Platform) Frame(from transport.Handle, id string) (transport.Handle, bool) {
	args := p.Called(from, id)
	h, _ := args.Get(0).(transport.Handle)
	return h, args.Bool(1)
}

func (p *Platform) ResizeTo(width, height int) error {
	args := p.Called(width, height)
	return args.Error(0)
}

func (p *Platform) Focus() {
	p.Called()
}

func (p *Platform) Navigate(target transport.Handle, url string) error {
	args := p.Called(target, url)
	return args.Error(0)
}

// Handle is a bare context identifier for tests.
type Handle string

func (h Handle) ID() string { return string(h) }
