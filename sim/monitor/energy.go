package monitor

import (
	"fmt"

	"github.com/tanaxer01/batsim-go/sim"
)

// EnergyEventType tags what triggered an EnergyRow.
type EnergyEventType string

const (
	EnergyJobStarted   EnergyEventType = "s"
	EnergyJobCompleted EnergyEventType = "e"
	EnergyPowerChanged EnergyEventType = "p"
)

// EnergyRow is the platform energy balance at Time.
type EnergyRow struct {
	Time      float64
	Energy    float64 // cumulative joules since the simulation began
	EventType EnergyEventType
	WattMin   float64 // sum of the full-load draw of every host's power state
	EPower    float64 // sum of every host's draw
}

// ConsumedEnergyMonitor samples the energy consumed by the whole platform
// whenever a job starts or completes, or a host changes.
//
// WattMin and EPower describe the interval that just ended, i.e. the hosts
// as they were before the triggering event.
type ConsumedEnergyMonitor struct {
	rows []EnergyRow
	last map[int]hostSnapshot
	sim  sim.Handle
}

var _ Monitor[[]EnergyRow] = (*ConsumedEnergyMonitor)(nil)

// NewConsumedEnergyMonitor creates a ConsumedEnergyMonitor subscribed on bus.
func NewConsumedEnergyMonitor(bus *sim.Bus) *ConsumedEnergyMonitor {
	m := &ConsumedEnergyMonitor{}
	bus.OnSimulator(sim.SimulationBegins, m.onSimulationBegins)
	bus.OnJob(sim.JobStarted, func(*sim.Job) error { return m.sample(EnergyJobStarted) })
	bus.OnJob(sim.JobCompleted, func(*sim.Job) error { return m.sample(EnergyJobCompleted) })
	bus.OnHost(sim.HostStateChanged, func(*sim.Host) error { return m.sample(EnergyPowerChanged) })
	bus.OnHost(sim.HostPowerStateChanged, func(*sim.Host) error { return m.sample(EnergyPowerChanged) })
	return m
}

func (m *ConsumedEnergyMonitor) onSimulationBegins(h sim.Handle) error {
	m.sim = h
	m.rows = nil
	m.last = make(map[int]hostSnapshot, h.Platform().Size())
	now := h.CurrentTime()
	for _, host := range h.Platform().Hosts() {
		m.last[host.ID()] = snapshotOf(host, now)
	}
	return nil
}

func (m *ConsumedEnergyMonitor) sample(kind EnergyEventType) error {
	if m.sim == nil {
		return fmt.Errorf("energy monitor: %w", errNotStarted)
	}
	now := m.sim.CurrentTime()
	row := EnergyRow{Time: now, EventType: kind}
	if n := len(m.rows); n > 0 {
		row.Energy = m.rows[n-1].Energy
	}
	for _, host := range m.sim.Platform().Hosts() {
		prev := m.last[host.ID()]
		row.EPower += prev.watts
		row.Energy += prev.watts * (now - prev.since)
		if prev.pstate != nil {
			row.WattMin += prev.pstate.WattFull
		}
		m.last[host.ID()] = snapshotOf(host, now)
	}
	m.rows = append(m.rows, row)
	return nil
}

// Info returns a copy of the rows in time order.
func (m *ConsumedEnergyMonitor) Info() []EnergyRow {
	return append([]EnergyRow(nil), m.rows...)
}

var energyColumns = []string{"time", "energy", "event_type", "wattmin", "epower"}

func (m *ConsumedEnergyMonitor) Table() Table {
	t := Table{Columns: energyColumns, Rows: make([][]string, 0, len(m.rows))}
	for _, r := range m.rows {
		t.Rows = append(t.Rows, []string{
			formatFloat(r.Time),
			formatFloat(r.Energy),
			string(r.EventType),
			formatFloat(r.WattMin),
			formatFloat(r.EPower),
		})
	}
	return t
}
