package workload

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/tanaxer01/batsim-go/sim"
	"github.com/tanaxer01/batsim-go/sim/monitor"
	"github.com/tanaxer01/batsim-go/sim/procset"
	"github.com/tanaxer01/batsim-go/sim/trace"
)

// Monitors groups every monitor attached to one run.
type Monitors struct {
	Jobs       *monitor.JobMonitor
	Scheduler  *monitor.SchedulerMonitor
	Hosts      *monitor.HostMonitor
	HostStates *monitor.HostStateSwitchMonitor
	PStates    *monitor.HostPowerStateSwitchMonitor
	Energy     *monitor.ConsumedEnergyMonitor
	Simulation *monitor.SimulationMonitor
}

// AttachMonitors subscribes a fresh instance of every monitor on bus.
func AttachMonitors(bus *sim.Bus, opts ...monitor.SimulationOption) *Monitors {
	return &Monitors{
		Jobs:       monitor.NewJobMonitor(bus),
		Scheduler:  monitor.NewSchedulerMonitor(bus),
		Hosts:      monitor.NewHostMonitor(bus),
		HostStates: monitor.NewHostStateSwitchMonitor(bus),
		PStates:    monitor.NewHostPowerStateSwitchMonitor(bus),
		Energy:     monitor.NewConsumedEnergyMonitor(bus),
		Simulation: monitor.NewSimulationMonitor(bus, opts...),
	}
}

// NamedTable is a monitor table with the name it is reported under.
type NamedTable struct {
	Name  string
	Table monitor.Table
}

// Tables returns the table of every monitor in reporting order.
func (m *Monitors) Tables() []NamedTable {
	return []NamedTable{
		{"jobs", m.Jobs.Table()},
		{"schedule", m.Scheduler.Table()},
		{"hosts", m.Hosts.Table()},
		{"host_states", m.HostStates.Table()},
		{"host_pstates", m.PStates.Table()},
		{"consumed_energy", m.Energy.Table()},
		{"simulation", m.Simulation.Table()},
	}
}

// Result is the outcome of a replay.
type Result struct {
	SimulationID string
	EndTime      float64
	Monitors     *Monitors
	Trace        *trace.SimulationTrace
}

// Replayer drives a simulation through the steps of a scenario.
type Replayer struct {
	spec       *ScenarioSpec
	trace      trace.TraceConfig
	monitorOps []monitor.SimulationOption
}

// ReplayOption configures a Replayer.
type ReplayOption func(*Replayer)

// WithTraceLevel records every event of the run at the given level.
func WithTraceLevel(level trace.TraceLevel) ReplayOption {
	return func(r *Replayer) { r.trace.Level = level }
}

// WithSimulationOptions forwards options to the SimulationMonitor.
func WithSimulationOptions(opts ...monitor.SimulationOption) ReplayOption {
	return func(r *Replayer) { r.monitorOps = append(r.monitorOps, opts...) }
}

// NewReplayer validates spec and returns a Replayer for it.
func NewReplayer(spec *ScenarioSpec, opts ...ReplayOption) (*Replayer, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	r := &Replayer{spec: spec, trace: trace.TraceConfig{Level: trace.TraceLevelNone}}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run builds the platform and jobs, attaches the monitors, and applies every
// step in order. If ctx is cancelled between steps the simulation is closed
// early, so monitors still account for time up to the last step, and the
// partial result is returned along with the context error.
func (r *Replayer) Run(ctx context.Context) (*Result, error) {
	bus := sim.NewBus()
	profiles, err := r.spec.BuildProfiles()
	if err != nil {
		return nil, err
	}
	platform, err := r.spec.BuildPlatform(bus)
	if err != nil {
		return nil, err
	}
	jobs, err := r.spec.BuildJobs(bus, profiles)
	if err != nil {
		return nil, err
	}

	simulator := sim.NewSimulator(platform, bus)
	result := &Result{
		SimulationID: simulator.ID,
		Monitors:     AttachMonitors(bus, r.monitorOps...),
		Trace:        trace.NewSimulationTrace(r.trace),
	}
	if result.Trace.Enabled() {
		recordEvents(bus, simulator, result.Trace)
	}

	logrus.Infof("Replaying scenario %q: %d hosts, %d profiles, %d jobs, %d steps",
		r.spec.Name, platform.Size(), len(profiles), len(jobs), len(r.spec.Steps))
	if err := simulator.Start(); err != nil {
		return nil, err
	}

	for i, step := range r.spec.Steps {
		if err := ctx.Err(); err != nil {
			logrus.Warnf("Replay cancelled before step %d at t=%g", i, simulator.CurrentTime())
			result.EndTime = simulator.CurrentTime()
			if cerr := simulator.Close(); cerr != nil {
				return result, fmt.Errorf("%w (closing: %v)", err, cerr)
			}
			return result, err
		}
		if err := simulator.Proceed(step.Time); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if err := applyStep(step, jobs, platform); err != nil {
			return nil, fmt.Errorf("step %d (%s at t=%g): %w", i, step.Action, step.Time, err)
		}
	}

	result.EndTime = simulator.CurrentTime()
	if err := simulator.Close(); err != nil {
		return nil, err
	}
	return result, nil
}

func applyStep(step StepSpec, jobs map[string]*sim.Job, platform *sim.Platform) error {
	var hostIDs []int
	if step.Hosts != "" {
		set, err := procset.Parse(step.Hosts)
		if err != nil {
			return err
		}
		hostIDs = set.IDs()
	}

	switch step.Action {
	case ActionSubmit:
		return jobs[step.Job].Submit(step.Time)
	case ActionAllocate:
		return jobs[step.Job].Allocate(hostIDs)
	case ActionStart:
		return jobs[step.Job].Start(step.Time)
	case ActionTerminate:
		final := sim.JobStateCompletedSuccessfully
		if step.State != "" {
			final = sim.JobState(step.State)
		}
		return jobs[step.Job].Terminate(step.Time, final)
	case ActionKill:
		return jobs[step.Job].Kill(step.Time)
	case ActionReject:
		return jobs[step.Job].Reject()
	case ActionHostState:
		return eachHost(platform, hostIDs, func(h *sim.Host) error {
			return h.SetState(sim.HostState(step.State))
		})
	case ActionHostPState:
		return eachHost(platform, hostIDs, func(h *sim.Host) error {
			return h.SetPowerState(*step.PState)
		})
	}
	return fmt.Errorf("unknown action %q", step.Action)
}

func eachHost(platform *sim.Platform, ids []int, fn func(*sim.Host) error) error {
	for _, id := range ids {
		h, ok := platform.Host(id)
		if !ok {
			return fmt.Errorf("%w: no host %d", sim.ErrInvalidPlatform, id)
		}
		if err := fn(h); err != nil {
			return err
		}
	}
	return nil
}

// recordEvents subscribes st to every event kind on bus.
func recordEvents(bus *sim.Bus, simulator *sim.Simulator, st *trace.SimulationTrace) {
	for _, kind := range []sim.JobEvent{
		sim.JobSubmitted, sim.JobAllocated, sim.JobStarted, sim.JobCompleted, sim.JobRejected, sim.JobKilled,
	} {
		kind := kind
		bus.OnJob(kind, func(j *sim.Job) error {
			st.Record(trace.EventRecord{Time: simulator.CurrentTime(), Kind: string(kind), Sender: j.ID(), State: string(j.State())})
			return nil
		})
	}
	for _, kind := range []sim.HostEvent{sim.HostStateChanged, sim.HostPowerStateChanged} {
		kind := kind
		bus.OnHost(kind, func(h *sim.Host) error {
			st.Record(trace.EventRecord{Time: simulator.CurrentTime(), Kind: string(kind), Sender: strconv.Itoa(h.ID()), State: string(h.State())})
			return nil
		})
	}
	for _, kind := range []sim.SimulatorEvent{sim.SimulationBegins, sim.SimulationEnds} {
		kind := kind
		bus.OnSimulator(kind, func(h sim.Handle) error {
			st.Record(trace.EventRecord{Time: h.CurrentTime(), Kind: string(kind), Sender: simulator.ID})
			return nil
		})
	}
}
