package monitor

import (
	"fmt"
	"strconv"

	"github.com/tanaxer01/batsim-go/sim"
)

// HostStateRow counts the hosts in each state at Time.
type HostStateRow struct {
	Time           float64
	NbSleeping     int
	NbSwitchingOn  int
	NbSwitchingOff int
	NbIdle         int
	NbComputing    int
}

// counter returns the field of r that counts hosts in state.
func (r *HostStateRow) counter(state sim.HostState) (*int, error) {
	switch state {
	case sim.HostIdle:
		return &r.NbIdle, nil
	case sim.HostComputing:
		return &r.NbComputing, nil
	case sim.HostSleeping:
		return &r.NbSleeping, nil
	case sim.HostSwitchingOff:
		return &r.NbSwitchingOff, nil
	case sim.HostSwitchingOn:
		return &r.NbSwitchingOn, nil
	}
	return nil, fmt.Errorf("host state monitor: unknown state %q", state)
}

// HostStateSwitchMonitor records how many hosts are in each state over time.
// All changes that happen at the same simulated time collapse into one row.
type HostStateSwitchMonitor struct {
	rows []HostStateRow
	last map[int]sim.HostState
	sim  sim.Handle
}

var _ Monitor[[]HostStateRow] = (*HostStateSwitchMonitor)(nil)

// NewHostStateSwitchMonitor creates a HostStateSwitchMonitor subscribed on bus.
func NewHostStateSwitchMonitor(bus *sim.Bus) *HostStateSwitchMonitor {
	m := &HostStateSwitchMonitor{}
	bus.OnSimulator(sim.SimulationBegins, m.onSimulationBegins)
	bus.OnHost(sim.HostStateChanged, m.onHostStateChanged)
	return m
}

func (m *HostStateSwitchMonitor) onSimulationBegins(h sim.Handle) error {
	m.sim = h
	m.last = make(map[int]sim.HostState, h.Platform().Size())
	row := HostStateRow{Time: h.CurrentTime()}
	for _, host := range h.Platform().Hosts() {
		c, err := row.counter(host.State())
		if err != nil {
			return err
		}
		*c++
		m.last[host.ID()] = host.State()
	}
	m.rows = []HostStateRow{row}
	return nil
}

func (m *HostStateSwitchMonitor) onHostStateChanged(h *sim.Host) error {
	if m.sim == nil {
		return fmt.Errorf("host state monitor: host %d: %w", h.ID(), errNotStarted)
	}
	prev, ok := m.last[h.ID()]
	if !ok {
		return fmt.Errorf("host state monitor: host %d is not part of the platform", h.ID())
	}

	now := m.sim.CurrentTime()
	if m.rows[len(m.rows)-1].Time != now {
		next := m.rows[len(m.rows)-1]
		next.Time = now
		m.rows = append(m.rows, next)
	}
	row := &m.rows[len(m.rows)-1]

	from, err := row.counter(prev)
	if err != nil {
		return err
	}
	to, err := row.counter(h.State())
	if err != nil {
		return err
	}
	*from--
	*to++
	m.last[h.ID()] = h.State()
	return nil
}

// Info returns a copy of the rows in time order.
func (m *HostStateSwitchMonitor) Info() []HostStateRow {
	return append([]HostStateRow(nil), m.rows...)
}

var hostStateColumns = []string{"time", "nb_sleeping", "nb_switching_on", "nb_switching_off", "nb_idle", "nb_computing"}

func (m *HostStateSwitchMonitor) Table() Table {
	t := Table{Columns: hostStateColumns, Rows: make([][]string, 0, len(m.rows))}
	for _, r := range m.rows {
		t.Rows = append(t.Rows, []string{
			formatFloat(r.Time),
			strconv.Itoa(r.NbSleeping),
			strconv.Itoa(r.NbSwitchingOn),
			strconv.Itoa(r.NbSwitchingOff),
			strconv.Itoa(r.NbIdle),
			strconv.Itoa(r.NbComputing),
		})
	}
	return t
}
