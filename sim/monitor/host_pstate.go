package monitor

import (
	"fmt"
	"strconv"

	"github.com/tanaxer01/batsim-go/sim"
	"github.com/tanaxer01/batsim-go/sim/procset"
)

// Codes recorded in place of a power state id for transitional power states.
const (
	PStateSwitchingOn  = -1
	PStateSwitchingOff = -2
)

// PowerStateSwitchRow records that the hosts in MachineID entered NewPState at Time.
type PowerStateSwitchRow struct {
	Time      float64
	MachineID procset.Set
	NewPState int
}

// pstateCode maps a power state to the code recorded for it.
func pstateCode(ps *sim.PowerState) int {
	switch ps.Type {
	case sim.PowerStateSwitchingOn:
		return PStateSwitchingOn
	case sim.PowerStateSwitchingOff:
		return PStateSwitchingOff
	}
	return ps.ID
}

// HostPowerStateSwitchMonitor records power state switches. Hosts that switch
// to the same code at the same time share one row.
type HostPowerStateSwitchMonitor struct {
	rows []PowerStateSwitchRow
	last map[int]int // host id -> power state id
	sim  sim.Handle
}

var _ Monitor[[]PowerStateSwitchRow] = (*HostPowerStateSwitchMonitor)(nil)

// NewHostPowerStateSwitchMonitor creates a HostPowerStateSwitchMonitor subscribed on bus.
func NewHostPowerStateSwitchMonitor(bus *sim.Bus) *HostPowerStateSwitchMonitor {
	m := &HostPowerStateSwitchMonitor{}
	bus.OnSimulator(sim.SimulationBegins, m.onSimulationBegins)
	bus.OnHost(sim.HostPowerStateChanged, m.onHostChanged)
	bus.OnHost(sim.HostStateChanged, m.onHostChanged)
	return m
}

// onSimulationBegins seeds one row per initial power state id, in order of
// first appearance on the platform. Hosts without power states are ignored
// for the rest of the run.
func (m *HostPowerStateSwitchMonitor) onSimulationBegins(h sim.Handle) error {
	m.sim = h
	m.rows = nil
	m.last = make(map[int]int, h.Platform().Size())

	now := h.CurrentTime()
	rowOf := make(map[int]int)
	for _, host := range h.Platform().Hosts() {
		ps := host.PowerState()
		if ps == nil {
			continue
		}
		m.last[host.ID()] = ps.ID
		if i, ok := rowOf[ps.ID]; ok {
			m.rows[i].MachineID = m.rows[i].MachineID.Insert(host.ID())
			continue
		}
		rowOf[ps.ID] = len(m.rows)
		m.rows = append(m.rows, PowerStateSwitchRow{Time: now, MachineID: procset.New(host.ID()), NewPState: ps.ID})
	}
	return nil
}

func (m *HostPowerStateSwitchMonitor) onHostChanged(h *sim.Host) error {
	prev, tracked := m.last[h.ID()]
	if !tracked {
		return nil
	}
	if m.sim == nil {
		return fmt.Errorf("power state monitor: host %d: %w", h.ID(), errNotStarted)
	}
	ps := h.PowerState()
	if ps == nil || ps.ID == prev {
		return nil
	}
	m.last[h.ID()] = ps.ID

	now, code := m.sim.CurrentTime(), pstateCode(ps)
	if n := len(m.rows); n > 0 && m.rows[n-1].Time == now && m.rows[n-1].NewPState == code {
		m.rows[n-1].MachineID = m.rows[n-1].MachineID.Insert(h.ID())
		return nil
	}
	m.rows = append(m.rows, PowerStateSwitchRow{Time: now, MachineID: procset.New(h.ID()), NewPState: code})
	return nil
}

// Info returns a copy of the rows in time order.
func (m *HostPowerStateSwitchMonitor) Info() []PowerStateSwitchRow {
	return append([]PowerStateSwitchRow(nil), m.rows...)
}

var pstateColumns = []string{"time", "machine_id", "new_pstate"}

func (m *HostPowerStateSwitchMonitor) Table() Table {
	t := Table{Columns: pstateColumns, Rows: make([][]string, 0, len(m.rows))}
	for _, r := range m.rows {
		t.Rows = append(t.Rows, []string{formatFloat(r.Time), r.MachineID.String(), strconv.Itoa(r.NewPState)})
	}
	return t
}
