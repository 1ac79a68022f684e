// Package trace records the event stream of a simulation run for later
// inspection. It stores pure data and does not depend on sim/; callers
// subscribe a SimulationTrace to the bus themselves.
package trace

// EventRecord captures one dispatched event.
type EventRecord struct {
	Time   float64
	Kind   string // event kind, e.g. JOB_STARTED
	Sender string // job id, host id or simulation id
	State  string // sender state after the transition; empty for simulator events
}
