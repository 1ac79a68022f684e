package monitor

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tanaxer01/batsim-go/sim"
)

// SimulationInfo merges the scheduler and host summaries of a run.
// SimulationTime is the wall-clock duration of the run in seconds, or -1
// until the simulation ends.
type SimulationInfo struct {
	SchedulerInfo
	HostInfo
	SimulationTime float64
}

// SimulationMonitor composes a SchedulerMonitor and a HostMonitor and
// measures how long the run took in real time.
type SimulationMonitor struct {
	scheduler *SchedulerMonitor
	hosts     *HostMonitor
	now       func() time.Time
	began     time.Time
	elapsed   float64
}

var _ Monitor[SimulationInfo] = (*SimulationMonitor)(nil)

// SimulationOption configures a SimulationMonitor.
type SimulationOption func(*SimulationMonitor)

// WithWallClock replaces time.Now as the source of wall-clock time.
func WithWallClock(now func() time.Time) SimulationOption {
	return func(m *SimulationMonitor) { m.now = now }
}

// NewSimulationMonitor creates a SimulationMonitor subscribed on bus.
func NewSimulationMonitor(bus *sim.Bus, opts ...SimulationOption) *SimulationMonitor {
	m := &SimulationMonitor{
		scheduler: NewSchedulerMonitor(bus),
		hosts:     NewHostMonitor(bus),
		now:       time.Now,
		elapsed:   -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	bus.OnSimulator(sim.SimulationBegins, func(sim.Handle) error {
		m.began = m.now()
		m.elapsed = -1
		return nil
	})
	bus.OnSimulator(sim.SimulationEnds, func(h sim.Handle) error {
		m.elapsed = m.now().Sub(m.began).Seconds()
		logrus.Infof("simulation finished at t=%g after %.3fs", h.CurrentTime(), m.elapsed)
		return nil
	})
	return m
}

func (m *SimulationMonitor) Info() SimulationInfo {
	return SimulationInfo{
		SchedulerInfo:  m.scheduler.Info(),
		HostInfo:       m.hosts.Info(),
		SimulationTime: m.elapsed,
	}
}

func (m *SimulationMonitor) Table() Table {
	info := m.Info()
	columns := append(append(append([]string(nil), schedulerColumns...), hostColumns...), "simulation_time")
	row := append(append(info.SchedulerInfo.cells(), info.HostInfo.cells()...), formatFloat(info.SimulationTime))
	return Table{Columns: columns, Rows: [][]string{row}}
}
