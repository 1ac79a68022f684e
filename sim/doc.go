// Package sim provides the state-and-telemetry core of a batch-scheduling
// simulation client.
//
// # Reading Guide
//
// Start with these files:
//   - profile.go: the closed family of job profiles, validated at construction
//   - job.go: Job identity, lifecycle state machine and derived metrics
//   - host.go: Host, PowerState and Platform as reported by the engine
//   - event.go: event kinds and the Bus carrying all-sender subscriptions
//   - simulator.go: the engine handle emitting SimulationBegins/SimulationEnds
//
// # Architecture
//
// Every job and host owns a one-shot events.Registry: dispatching a kind
// consumes the handlers registered on that entity for it. Monitors instead
// subscribe once on the shared Bus, which is passed explicitly to jobs
// (WithBus), hosts (NewPlatform) and the simulator (NewSimulator).
//
// Sub-packages:
//   - sim/events/: generic Registry and Broadcaster
//   - sim/monitor/: statistics monitors and their tables
//   - sim/procset/: host id interval sets
//   - sim/trace/: event trace recording
//   - sim/workload/: YAML scenarios and their replay
//
// Nothing here is safe for concurrent use; the engine is single threaded.
package sim
