package sim

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Simulator is the engine-side handle of one simulation run. It owns the
// simulated clock and emits the lifecycle events monitors rely on:
// SimulationBegins exactly once before anything else, SimulationEnds exactly
// once at the end.
//
// The external engine drives it from a single goroutine.
type Simulator struct {
	ID       string
	Clock    float64
	platform *Platform
	bus      *Bus
	started  bool
	closed   bool
}

// NewSimulator returns a simulator for platform whose events go to bus.
func NewSimulator(platform *Platform, bus *Bus) *Simulator {
	if bus == nil {
		bus = NewBus()
	}
	return &Simulator{
		ID:       uuid.NewString(),
		platform: platform,
		bus:      bus,
	}
}

func (s *Simulator) CurrentTime() float64 { return s.Clock }
func (s *Simulator) Platform() *Platform  { return s.platform }
func (s *Simulator) Bus() *Bus            { return s.bus }
func (s *Simulator) IsRunning() bool      { return s.started && !s.closed }

// Start dispatches SimulationBegins at the current clock.
func (s *Simulator) Start() error {
	if s.started {
		return fmt.Errorf("%w: simulation %s already started", ErrInvalidState, s.ID)
	}
	if s.platform == nil {
		return fmt.Errorf("%w: simulation %s has no platform", ErrInvalidState, s.ID)
	}
	s.started = true
	logrus.Infof("[t=%g] Simulation %s begins with %d hosts", s.Clock, s.ID, s.platform.Size())
	return s.bus.Simulator.Dispatch(SimulationBegins, s)
}

// Proceed advances the clock to t. Time never moves backwards.
func (s *Simulator) Proceed(t float64) error {
	if !s.IsRunning() {
		return fmt.Errorf("%w: simulation %s is not running", ErrInvalidState, s.ID)
	}
	if !isFinite(t) {
		return fmt.Errorf("%w: time must be finite, got %g", ErrInvalidState, t)
	}
	if t < s.Clock {
		return fmt.Errorf("%w: time cannot go back from %g to %g", ErrInvalidState, s.Clock, t)
	}
	s.Clock = t
	return nil
}

// Close dispatches SimulationEnds. Monitors flush pending time accounting at
// this point.
func (s *Simulator) Close() error {
	if !s.IsRunning() {
		return fmt.Errorf("%w: simulation %s is not running", ErrInvalidState, s.ID)
	}
	s.closed = true
	logrus.Infof("[t=%g] Simulation %s ended", s.Clock, s.ID)
	return s.bus.Simulator.Dispatch(SimulationEnds, s)
}
