package testutil

import (
	"testing"

	"github.com/atlanticdynamic/framelink/internal/transport/memory"
	"github.com/stretchr/testify/require"
)

// NewBus returns a quiet memory bus that is closed when the test ends.
func NewBus(t *testing.T, opts ...memory.Option) *memory.Bus {
	t.Helper()
	opts = append([]memory.Option{memory.WithLogHandler(DiscardHandler())}, opts...)
	bus := memory.NewBus(opts...)
	t.Cleanup(func() {
		require.NoError(t, bus.Close())
	})
	return bus
}
