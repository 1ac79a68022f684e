package monitor

import (
	"fmt"
	"strconv"

	"github.com/tanaxer01/batsim-go/sim"
)

// HostInfo aggregates the time every host spent in each state and the
// energy they consumed.
type HostInfo struct {
	TimeIdle            float64
	TimeComputing       float64
	TimeSwitchingOff    float64
	TimeSwitchingOn     float64
	TimeSleeping        float64
	ConsumedJoules      float64
	EnergyWaste         float64
	NbSwitches          int
	NbComputingMachines int
}

// hostSnapshot is a host as last observed by a monitor.
type hostSnapshot struct {
	since  float64
	watts  float64 // zero when the host has no power state
	state  sim.HostState
	pstate *sim.PowerState
}

func snapshotOf(h *sim.Host, now float64) hostSnapshot {
	watts, _ := h.Power()
	return hostSnapshot{since: now, watts: watts, state: h.State(), pstate: h.PowerState()}
}

// HostMonitor attributes the time since each host's previous transition to
// the state the host was in, and integrates its power draw over that time.
// Energy spent idle or switching is counted as waste.
type HostMonitor struct {
	info HostInfo
	last map[int]hostSnapshot
	sim  sim.Handle
}

var _ Monitor[HostInfo] = (*HostMonitor)(nil)

// NewHostMonitor creates a HostMonitor subscribed on bus.
func NewHostMonitor(bus *sim.Bus) *HostMonitor {
	m := &HostMonitor{}
	bus.OnSimulator(sim.SimulationBegins, m.onSimulationBegins)
	bus.OnSimulator(sim.SimulationEnds, m.onSimulationEnds)
	bus.OnHost(sim.HostStateChanged, m.update)
	bus.OnHost(sim.HostPowerStateChanged, m.update)
	return m
}

func (m *HostMonitor) onSimulationBegins(h sim.Handle) error {
	m.sim = h
	m.info = HostInfo{NbComputingMachines: h.Platform().Size()}
	m.last = make(map[int]hostSnapshot, h.Platform().Size())
	now := h.CurrentTime()
	for _, host := range h.Platform().Hosts() {
		m.last[host.ID()] = snapshotOf(host, now)
	}
	return nil
}

// onSimulationEnds accounts every host up to the final time.
func (m *HostMonitor) onSimulationEnds(h sim.Handle) error {
	for _, host := range h.Platform().Hosts() {
		if err := m.update(host); err != nil {
			return err
		}
	}
	return nil
}

func (m *HostMonitor) update(h *sim.Host) error {
	if m.sim == nil {
		return fmt.Errorf("host monitor: host %d: %w", h.ID(), errNotStarted)
	}
	prev, ok := m.last[h.ID()]
	if !ok {
		return fmt.Errorf("host monitor: host %d is not part of the platform", h.ID())
	}
	now := m.sim.CurrentTime()
	elapsed := now - prev.since
	energy := elapsed * prev.watts

	wasted := false
	switch prev.state {
	case sim.HostIdle:
		m.info.TimeIdle += elapsed
		wasted = true
	case sim.HostComputing:
		m.info.TimeComputing += elapsed
	case sim.HostSwitchingOff:
		m.info.TimeSwitchingOff += elapsed
		wasted = true
	case sim.HostSwitchingOn:
		m.info.TimeSwitchingOn += elapsed
		wasted = true
	case sim.HostSleeping:
		m.info.TimeSleeping += elapsed
	default:
		return fmt.Errorf("host monitor: host %d: unknown state %q", h.ID(), prev.state)
	}

	m.info.ConsumedJoules += energy
	if wasted {
		m.info.EnergyWaste += energy
	}
	if cur := h.PowerState(); cur != nil && prev.pstate != nil && cur.ID != prev.pstate.ID {
		m.info.NbSwitches++
	}

	m.last[h.ID()] = snapshotOf(h, now)
	return nil
}

func (m *HostMonitor) Info() HostInfo { return m.info }

var hostColumns = []string{
	"time_idle", "time_computing", "time_switching_off", "time_switching_on", "time_sleeping",
	"consumed_joules", "energy_waste", "nb_switches", "nb_computing_machines",
}

func (i HostInfo) cells() []string {
	return []string{
		formatFloat(i.TimeIdle),
		formatFloat(i.TimeComputing),
		formatFloat(i.TimeSwitchingOff),
		formatFloat(i.TimeSwitchingOn),
		formatFloat(i.TimeSleeping),
		formatFloat(i.ConsumedJoules),
		formatFloat(i.EnergyWaste),
		strconv.Itoa(i.NbSwitches),
		strconv.Itoa(i.NbComputingMachines),
	}
}

func (m *HostMonitor) Table() Table {
	return Table{Columns: hostColumns, Rows: [][]string{m.info.cells()}}
}
