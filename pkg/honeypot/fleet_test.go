package honeypot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSensor struct {
	name     string
	startErr error
	started  bool
	stopped  bool
}

func (s *fakeSensor) Name() string { return s.name }

func (s *fakeSensor) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *fakeSensor) Shutdown(grace time.Duration) { s.stopped = true }

func TestFleetStartsAndStopsAllSensors(t *testing.T) {
	f := NewFleet(zerolog.Nop())
	a := &fakeSensor{name: "a"}
	b := &fakeSensor{name: "b"}
	f.Register(a)
	f.Register(b)

	require.NoError(t, f.Start(context.Background()))
	assert.True(t, a.started)
	assert.True(t, b.started)

	f.Shutdown(time.Second)
	assert.True(t, a.stopped)
	assert.True(t, b.stopped)
}

func TestFleetStartFailureDrainsStartedSensors(t *testing.T) {
	f := NewFleet(zerolog.Nop())
	ok := &fakeSensor{name: "ok"}
	bad := &fakeSensor{name: "bad", startErr: errors.New("address in use")}
	never := &fakeSensor{name: "never"}
	f.Register(ok)
	f.Register(bad)
	f.Register(never)

	err := f.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	// The sensor started before the failure is drained; the one after
	// the failure is never started.
	assert.True(t, ok.stopped)
	assert.False(t, never.started)
}
