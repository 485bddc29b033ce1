package status

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	startedAt := time.Now().Add(-2 * time.Second)
	snap, err := Collect(startedAt)
	require.NotNil(t, snap)
	// Process metrics may be unreadable on exotic platforms, but the
	// basic fields never are.
	_ = err

	assert.Equal(t, int32(os.Getpid()), snap.PID)
	assert.Equal(t, startedAt, snap.StartedAt)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 2.0)
	assert.NotEmpty(t, snap.Hostname)
}
