package honeypot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Fleet manages the registration and lifecycle of all honeypot sensors
// in the process.
type Fleet struct {
	sensors []Sensor
	logger  zerolog.Logger
	started []Sensor
}

// NewFleet creates an empty fleet.
func NewFleet(logger zerolog.Logger) *Fleet {
	return &Fleet{logger: logger.With().Str("component", "fleet").Logger()}
}

// Register adds a sensor to the fleet.
func (f *Fleet) Register(s Sensor) {
	f.sensors = append(f.sensors, s)
	f.logger.Info().Str("sensor", s.Name()).Msg("Sensor registered")
}

// Start launches every registered sensor. The first bind failure stops
// the rollout, drains anything already started, and is returned to the
// caller: a sensor that cannot bind its port is fatal at startup.
func (f *Fleet) Start(ctx context.Context) error {
	for _, s := range f.sensors {
		if err := s.Start(ctx); err != nil {
			f.logger.Error().Err(err).Str("sensor", s.Name()).Msg("Sensor failed to start")
			f.Shutdown(time.Second)
			return fmt.Errorf("start sensor %s: %w", s.Name(), err)
		}
		f.started = append(f.started, s)
	}
	f.logger.Info().Int("sensors", len(f.started)).Msg("All sensors started")
	return nil
}

// Shutdown drains every started sensor, giving each up to grace to let
// in-flight sessions finish.
func (f *Fleet) Shutdown(grace time.Duration) {
	for _, s := range f.started {
		s.Shutdown(grace)
	}
	f.started = nil
	f.logger.Info().Msg("Fleet stopped")
}
