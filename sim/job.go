// Defines the Job entity: identity, lifecycle state machine and the performance
// metrics derived from its timestamps.

package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/tanaxer01/batsim-go/sim/events"
)

// WorkloadSeparator joins the workload name and the job name in a job id.
const WorkloadSeparator = "!"

// JobState represents the lifecycle state of a job.
type JobState string

const (
	JobStateUnknown                  JobState = "UNKNOWN"
	JobStateSubmitted                JobState = "SUBMITTED"
	JobStateAllocated                JobState = "ALLOCATED"
	JobStateRunning                  JobState = "RUNNING"
	JobStateCompletedSuccessfully    JobState = "COMPLETED_SUCCESSFULLY"
	JobStateCompletedFailed          JobState = "COMPLETED_FAILED"
	JobStateCompletedWalltimeReached JobState = "COMPLETED_WALLTIME_REACHED"
	JobStateCompletedKilled          JobState = "COMPLETED_KILLED"
	JobStateRejected                 JobState = "REJECTED"
)

// IsTerminal reports whether no further transition may leave s.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateCompletedSuccessfully, JobStateCompletedFailed,
		JobStateCompletedWalltimeReached, JobStateCompletedKilled, JobStateRejected:
		return true
	}
	return false
}

// Job models a rigid job requesting a fixed number of hosts.
//
// Read accessors may be used by anyone. The transition methods (Submit,
// Allocate, Reject, Start, Kill, Terminate) belong to the driving engine:
// policies and monitors observe jobs through events and never call them.
type Job struct {
	name     string
	workload string
	res      int
	profile  JobProfile
	subtime  float64
	walltime *float64
	user     string

	state      JobState
	allocation []int
	startTime  *float64
	stopTime   *float64

	observers events.Registry[JobEvent, *Job]
	bus       *Bus
}

// JobOption configures optional Job fields.
type JobOption func(*Job)

// WithWalltime sets the job's execution time limit in seconds.
func WithWalltime(walltime float64) JobOption {
	return func(j *Job) { j.walltime = &walltime }
}

// WithUser sets the job's owner name.
func WithUser(user string) JobOption {
	return func(j *Job) { j.user = user }
}

// WithBus attaches the job to a Bus so that bus subscribers observe its events.
func WithBus(bus *Bus) JobOption {
	return func(j *Job) { j.bus = bus }
}

// NewJob creates a job in state UNKNOWN.
func NewJob(name, workload string, res int, profile JobProfile, subtime float64, opts ...JobOption) (*Job, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: job name must not be empty", ErrInvalidJob)
	}
	if res <= 0 {
		return nil, fmt.Errorf("%w: job %s%s%s: requested resources must be > 0, got %d",
			ErrInvalidJob, workload, WorkloadSeparator, name, res)
	}
	if !isKnownProfile(profile) {
		return nil, fmt.Errorf("%w: job %s%s%s: expected a job profile, got %T",
			ErrInvalidJob, workload, WorkloadSeparator, name, profile)
	}

	j := &Job{
		name:     name,
		workload: workload,
		res:      res,
		profile:  profile,
		subtime:  subtime,
		state:    JobStateUnknown,
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.walltime != nil && !(isFinite(*j.walltime) && *j.walltime > 0) {
		return nil, fmt.Errorf("%w: job %s: walltime must be finite and > 0, got %g", ErrInvalidJob, j.ID(), *j.walltime)
	}
	return j, nil
}

// ID returns workload + WorkloadSeparator + name.
func (j *Job) ID() string          { return j.workload + WorkloadSeparator + j.name }
func (j *Job) Name() string        { return j.name }
func (j *Job) Workload() string    { return j.workload }
func (j *Job) Res() int            { return j.res }
func (j *Job) Profile() JobProfile { return j.profile }
func (j *Job) Subtime() float64    { return j.subtime }
func (j *Job) User() string        { return j.user }
func (j *Job) State() JobState     { return j.state }

// Walltime returns the execution time limit, if one was requested.
func (j *Job) Walltime() (float64, bool) { return deref(j.walltime) }

// Allocation returns a copy of the allocated host ids, or nil before allocation.
func (j *Job) Allocation() []int {
	if j.allocation == nil {
		return nil
	}
	return append([]int(nil), j.allocation...)
}

func (j *Job) StartTime() (float64, bool) { return deref(j.startTime) }
func (j *Job) StopTime() (float64, bool)  { return deref(j.stopTime) }

func (j *Job) IsSubmitted() bool { return j.state == JobStateSubmitted }
func (j *Job) IsRunnable() bool  { return j.state == JobStateAllocated }
func (j *Job) IsRunning() bool   { return j.state == JobStateRunning }
func (j *Job) IsRejected() bool  { return j.state == JobStateRejected }
func (j *Job) IsFinished() bool  { return j.stopTime != nil }

func (j Job) String() string {
	return fmt.Sprintf("Job: (ID: %s, State: %s, Res: %d, Subtime: %g)", j.ID(), j.state, j.res, j.subtime)
}

// WaitingTime is start_time - subtime.
func (j *Job) WaitingTime() (float64, bool) {
	if j.startTime == nil {
		return 0, false
	}
	return *j.startTime - j.subtime, true
}

// Runtime is stop_time - start_time.
func (j *Job) Runtime() (float64, bool) {
	if j.startTime == nil || j.stopTime == nil {
		return 0, false
	}
	return *j.stopTime - *j.startTime, true
}

// Stretch is the waiting time divided by the walltime when one was requested,
// otherwise by the runtime. Undefined when the divisor is missing or zero.
func (j *Job) Stretch() (float64, bool) {
	waiting, ok := j.WaitingTime()
	if !ok {
		return 0, false
	}
	if j.walltime != nil {
		return ratio(waiting, *j.walltime)
	}
	if runtime, ok := j.Runtime(); ok {
		return ratio(waiting, runtime)
	}
	return 0, false
}

// TurnaroundTime is waiting time + runtime.
func (j *Job) TurnaroundTime() (float64, bool) {
	waiting, ok := j.WaitingTime()
	if !ok {
		return 0, false
	}
	runtime, ok := j.Runtime()
	if !ok {
		return 0, false
	}
	return waiting + runtime, true
}

// PerProcessorSlowdown is max(1, turnaround / (res * runtime)).
func (j *Job) PerProcessorSlowdown() (float64, bool) {
	turnaround, ok := j.TurnaroundTime()
	if !ok {
		return 0, false
	}
	runtime, _ := j.Runtime()
	r, ok := ratio(turnaround, float64(j.res)*runtime)
	if !ok {
		return 0, false
	}
	return math.Max(1, r), true
}

// Slowdown is max(1, turnaround / runtime).
func (j *Job) Slowdown() (float64, bool) {
	turnaround, ok := j.TurnaroundTime()
	if !ok {
		return 0, false
	}
	runtime, _ := j.Runtime()
	r, ok := ratio(turnaround, runtime)
	if !ok {
		return 0, false
	}
	return math.Max(1, r), true
}

// Subscribe registers h for the next dispatch of kind on this job only.
func (j *Job) Subscribe(kind JobEvent, h events.Handler[*Job]) {
	j.observers.Subscribe(kind, h)
}

// Submit moves the job from UNKNOWN to SUBMITTED at subtime.
func (j *Job) Submit(subtime float64) error {
	if j.state != JobStateUnknown {
		return fmt.Errorf("%w: job %s was already submitted, got state %s", ErrInvalidState, j.ID(), j.state)
	}
	if !isFinite(subtime) || subtime < 0 {
		return fmt.Errorf("%w: job %s: subtime must be finite and >= 0, got %g", ErrInvalidState, j.ID(), subtime)
	}
	j.state = JobStateSubmitted
	j.subtime = subtime
	logrus.Debugf("[t=%g] job %s submitted (%s)", subtime, j.ID(), j.profile)
	return j.dispatch(JobSubmitted)
}

// Allocate records the hosts reserved for the job. It can happen only once.
func (j *Job) Allocate(hosts []int) error {
	if j.allocation != nil {
		return fmt.Errorf("%w: job %s was already allocated, got state %s", ErrInvalidState, j.ID(), j.state)
	}
	if j.state.IsTerminal() {
		return fmt.Errorf("%w: job %s cannot be allocated in state %s", ErrInvalidState, j.ID(), j.state)
	}
	if len(hosts) != j.res {
		return fmt.Errorf("%w: job %s: expected %d hosts, got %v", ErrInvalidState, j.ID(), j.res, hosts)
	}
	seen := make(map[int]bool, len(hosts))
	for _, h := range hosts {
		if seen[h] {
			return fmt.Errorf("%w: job %s: host %d allocated twice in %v", ErrInvalidState, j.ID(), h, hosts)
		}
		seen[h] = true
	}
	j.allocation = append([]int(nil), hosts...)
	j.state = JobStateAllocated
	logrus.Debugf("job %s allocated on %v", j.ID(), hosts)
	return j.dispatch(JobAllocated)
}

// Reject marks the job as refused by the scheduler.
func (j *Job) Reject() error {
	if j.state == JobStateRunning || j.state.IsTerminal() {
		return fmt.Errorf("%w: job %s cannot be rejected in state %s", ErrInvalidState, j.ID(), j.state)
	}
	j.state = JobStateRejected
	logrus.Debugf("job %s rejected", j.ID())
	return j.dispatch(JobRejected)
}

// Start moves an allocated job to RUNNING at currentTime.
func (j *Job) Start(currentTime float64) error {
	if j.startTime != nil {
		return fmt.Errorf("%w: job %s was already started at %g", ErrInvalidState, j.ID(), *j.startTime)
	}
	if !j.IsRunnable() {
		return fmt.Errorf("%w: job %s cannot start if it is not runnable, got state %s", ErrInvalidState, j.ID(), j.state)
	}
	if !isFinite(currentTime) || currentTime < j.subtime {
		return fmt.Errorf("%w: job %s: current time %g must be finite and >= subtime %g", ErrInvalidState, j.ID(), currentTime, j.subtime)
	}
	j.startTime = &currentTime
	j.state = JobStateRunning
	logrus.Debugf("[t=%g] job %s started", currentTime, j.ID())
	return j.dispatch(JobStarted)
}

// Kill stops a running job at currentTime with state COMPLETED_KILLED.
func (j *Job) Kill(currentTime float64) error {
	if err := j.checkStoppable(currentTime); err != nil {
		return err
	}
	j.stopTime = &currentTime
	j.state = JobStateCompletedKilled
	logrus.Debugf("[t=%g] job %s killed", currentTime, j.ID())
	return j.dispatch(JobKilled)
}

// Terminate stops a running job at currentTime with the given final state,
// which must be COMPLETED_SUCCESSFULLY, COMPLETED_FAILED or
// COMPLETED_WALLTIME_REACHED.
func (j *Job) Terminate(currentTime float64, final JobState) error {
	if err := j.checkStoppable(currentTime); err != nil {
		return err
	}
	switch final {
	case JobStateCompletedSuccessfully, JobStateCompletedFailed, JobStateCompletedWalltimeReached:
	default:
		return fmt.Errorf("%w: job %s: final state must be one of [%s %s %s], got %s", ErrInvalidState, j.ID(),
			JobStateCompletedSuccessfully, JobStateCompletedFailed, JobStateCompletedWalltimeReached, final)
	}
	j.stopTime = &currentTime
	j.state = final
	logrus.Debugf("[t=%g] job %s completed with %s", currentTime, j.ID(), final)
	return j.dispatch(JobCompleted)
}

func (j *Job) checkStoppable(currentTime float64) error {
	if j.startTime == nil {
		return fmt.Errorf("%w: job %s cannot stop if it is not running, got state %s", ErrInvalidState, j.ID(), j.state)
	}
	if j.stopTime != nil {
		return fmt.Errorf("%w: job %s already stopped at %g", ErrInvalidState, j.ID(), *j.stopTime)
	}
	if !isFinite(currentTime) || currentTime < *j.startTime {
		return fmt.Errorf("%w: job %s: current time %g must be finite and >= start time %g", ErrInvalidState, j.ID(), currentTime, *j.startTime)
	}
	return nil
}

// dispatch drains the job's own slot for kind, then notifies the bus.
func (j *Job) dispatch(kind JobEvent) error {
	err := j.observers.Dispatch(kind, j)
	if j.bus != nil {
		err = errors.Join(err, j.bus.Jobs.Dispatch(kind, j))
	}
	return err
}

// isFinite reports whether t can be used as a simulated time.
func isFinite(t float64) bool {
	return !math.IsNaN(t) && !math.IsInf(t, 0)
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func ratio(num, den float64) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	return num / den, true
}
