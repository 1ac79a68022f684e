package sim

import "github.com/tanaxer01/batsim-go/sim/events"

// JobEvent is an event fired by a Job on a lifecycle transition.
type JobEvent string

const (
	JobSubmitted JobEvent = "JOB_SUBMITTED"
	JobAllocated JobEvent = "JOB_ALLOCATED"
	JobStarted   JobEvent = "JOB_STARTED"
	JobCompleted JobEvent = "JOB_COMPLETED"
	JobRejected  JobEvent = "JOB_REJECTED"
	JobKilled    JobEvent = "JOB_KILLED"
)

// HostEvent is an event fired by a Host when its state or power state changes.
type HostEvent string

const (
	HostStateChanged      HostEvent = "HOST_STATE_CHANGED"
	HostPowerStateChanged HostEvent = "HOST_COMPUTATION_POWER_STATE_CHANGED"
)

// SimulatorEvent is an event fired by the engine handle.
type SimulatorEvent string

const (
	SimulationBegins SimulatorEvent = "SIMULATION_BEGINS"
	SimulationEnds   SimulatorEvent = "SIMULATION_ENDS"
)

// Handle is the engine handle passed as sender of simulator events.
// Monitors keep it to read the clock and the platform when job or host
// events arrive.
type Handle interface {
	CurrentTime() float64
	Platform() *Platform
}

// Bus carries the persistent, all-sender subscriptions of a simulation run.
// Jobs, hosts and the simulator are given the same Bus at construction and
// notify it after draining their own one-shot registries.
type Bus struct {
	Jobs      events.Broadcaster[JobEvent, *Job]
	Hosts     events.Broadcaster[HostEvent, *Host]
	Simulator events.Broadcaster[SimulatorEvent, Handle]
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// OnJob subscribes h to kind for every job attached to the bus.
func (b *Bus) OnJob(kind JobEvent, h events.Handler[*Job]) (cancel func()) {
	return b.Jobs.Subscribe(kind, h)
}

// OnHost subscribes h to kind for every host attached to the bus.
func (b *Bus) OnHost(kind HostEvent, h events.Handler[*Host]) (cancel func()) {
	return b.Hosts.Subscribe(kind, h)
}

// OnSimulator subscribes h to a simulator lifecycle event.
func (b *Bus) OnSimulator(kind SimulatorEvent, h events.Handler[Handle]) (cancel func()) {
	return b.Simulator.Subscribe(kind, h)
}
