package monitor

import (
	"strconv"

	"github.com/tanaxer01/batsim-go/sim"
	"github.com/tanaxer01/batsim-go/sim/procset"
)

// JobRecord holds the statistics of one job that completed or was rejected.
// Pointer fields are nil when the value is undefined for that job.
type JobRecord struct {
	JobID              string
	WorkloadName       string
	Profile            string
	SubmissionTime     float64
	RequestedResources int
	RequestedTime      *float64
	Success            int
	FinalState         sim.JobState
	StartingTime       *float64
	ExecutionTime      *float64
	FinishTime         *float64
	WaitingTime        *float64
	TurnaroundTime     *float64
	Stretch            *float64
	AllocatedResources procset.Set
	ConsumedEnergy     float64 // not measured per job; always -1
}

// JobMonitor appends one record per job on JobCompleted or JobRejected.
type JobMonitor struct {
	records []JobRecord
}

var _ Monitor[[]JobRecord] = (*JobMonitor)(nil)

// NewJobMonitor creates a JobMonitor subscribed on bus.
func NewJobMonitor(bus *sim.Bus) *JobMonitor {
	m := &JobMonitor{}
	bus.OnSimulator(sim.SimulationBegins, func(sim.Handle) error {
		m.records = nil
		return nil
	})
	bus.OnJob(sim.JobCompleted, m.record)
	bus.OnJob(sim.JobRejected, m.record)
	return m
}

func (m *JobMonitor) record(job *sim.Job) error {
	success := 0
	if job.State() == sim.JobStateCompletedSuccessfully {
		success = 1
	}
	m.records = append(m.records, JobRecord{
		JobID:              job.ID(),
		WorkloadName:       job.Workload(),
		Profile:            job.Profile().Name(),
		SubmissionTime:     job.Subtime(),
		RequestedResources: job.Res(),
		RequestedTime:      optional(job.Walltime()),
		Success:            success,
		FinalState:         job.State(),
		StartingTime:       optional(job.StartTime()),
		ExecutionTime:      optional(job.Runtime()),
		FinishTime:         optional(job.StopTime()),
		WaitingTime:        optional(job.WaitingTime()),
		TurnaroundTime:     optional(job.TurnaroundTime()),
		Stretch:            optional(job.Stretch()),
		AllocatedResources: procset.New(job.Allocation()...),
		ConsumedEnergy:     -1,
	})
	return nil
}

// Info returns a copy of the records in completion order.
func (m *JobMonitor) Info() []JobRecord {
	return append([]JobRecord(nil), m.records...)
}

var jobColumns = []string{
	"job_id", "workload_name", "profile", "submission_time", "requested_number_of_resources",
	"requested_time", "success", "final_state", "starting_time", "execution_time", "finish_time",
	"waiting_time", "turnaround_time", "stretch", "allocated_resources", "consumed_energy",
}

func (m *JobMonitor) Table() Table {
	t := Table{Columns: jobColumns, Rows: make([][]string, 0, len(m.records))}
	for _, r := range m.records {
		t.Rows = append(t.Rows, []string{
			r.JobID,
			r.WorkloadName,
			r.Profile,
			formatFloat(r.SubmissionTime),
			strconv.Itoa(r.RequestedResources),
			formatOptional(r.RequestedTime),
			strconv.Itoa(r.Success),
			string(r.FinalState),
			formatOptional(r.StartingTime),
			formatOptional(r.ExecutionTime),
			formatOptional(r.FinishTime),
			formatOptional(r.WaitingTime),
			formatOptional(r.TurnaroundTime),
			formatOptional(r.Stretch),
			r.AllocatedResources.String(),
			formatFloat(r.ConsumedEnergy),
		})
	}
	return t
}
