// Package status collects a point-in-time snapshot of the sensor
// process for the admin API.
package status

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot describes the running sensor process.
type Snapshot struct {
	Hostname      string    `json:"hostname"`
	PID           int32     `json:"pid"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	MemoryRSS     uint64    `json:"memory_rss_bytes"`
	CPUPercent    float64   `json:"cpu_percent"`
}

// Collect gathers the snapshot. Metrics that cannot be read on this
// platform are left at their zero value rather than failing the whole
// snapshot.
func Collect(startedAt time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		PID:           int32(os.Getpid()),
		StartedAt:     startedAt,
		UptimeSeconds: time.Since(startedAt).Seconds(),
	}

	if hostname, err := os.Hostname(); err == nil {
		snap.Hostname = hostname
	}

	proc, err := process.NewProcess(snap.PID)
	if err != nil {
		return snap, err
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		snap.MemoryRSS = mem.RSS
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		snap.CPUPercent = cpu
	}
	return snap, nil
}
