package monitor

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tanaxer01/batsim-go/sim"
)

// SchedulerInfo summarizes scheduling quality. Mean fields are filled in
// when the simulation ends; until then they are zero.
type SchedulerInfo struct {
	Makespan           float64
	MaxSlowdown        float64
	MaxPPSlowdown      float64
	MaxStretch         float64
	MaxWaitingTime     float64
	MaxTurnaroundTime  float64
	MeanSlowdown       float64
	MeanPPSlowdown     float64
	MeanStretch        float64
	MeanWaitingTime    float64
	MeanTurnaroundTime float64
	NbJobs             int
	NbJobsFinished     int
	NbJobsKilled       int
	NbJobsRejected     int
	NbJobsSuccess      int
}

// sums holds the running sums behind the mean fields.
type sums struct {
	slowdown, ppSlowdown, stretch, waiting, turnaround float64
}

// SchedulerMonitor counts submitted, rejected and finished jobs and keeps
// running sums and maxima of their performance metrics.
//
// A job is finished when it completes or is killed. Finished jobs that did
// not succeed (failed, walltime reached, killed) are counted as killed.
// Killed jobs therefore appear in these counts but have no JobMonitor record,
// since JobMonitor only records completed and rejected jobs.
type SchedulerMonitor struct {
	info SchedulerInfo
	sums sums
	sim  sim.Handle
}

var _ Monitor[SchedulerInfo] = (*SchedulerMonitor)(nil)

// NewSchedulerMonitor creates a SchedulerMonitor subscribed on bus.
func NewSchedulerMonitor(bus *sim.Bus) *SchedulerMonitor {
	m := &SchedulerMonitor{}
	bus.OnSimulator(sim.SimulationBegins, m.onSimulationBegins)
	bus.OnSimulator(sim.SimulationEnds, m.onSimulationEnds)
	bus.OnJob(sim.JobSubmitted, func(*sim.Job) error {
		m.info.NbJobs++
		return nil
	})
	bus.OnJob(sim.JobRejected, func(*sim.Job) error {
		m.info.NbJobsRejected++
		return nil
	})
	bus.OnJob(sim.JobCompleted, m.onJobFinished)
	bus.OnJob(sim.JobKilled, m.onJobFinished)
	return m
}

func (m *SchedulerMonitor) onSimulationBegins(h sim.Handle) error {
	m.info = SchedulerInfo{}
	m.sums = sums{}
	m.sim = h
	return nil
}

func (m *SchedulerMonitor) onSimulationEnds(h sim.Handle) error {
	m.info.Makespan = h.CurrentTime()
	n := float64(max(1, m.info.NbJobsFinished))
	m.info.MeanSlowdown = m.sums.slowdown / n
	m.info.MeanPPSlowdown = m.sums.ppSlowdown / n
	m.info.MeanStretch = m.sums.stretch / n
	m.info.MeanWaitingTime = m.sums.waiting / n
	m.info.MeanTurnaroundTime = m.sums.turnaround / n
	return nil
}

func (m *SchedulerMonitor) onJobFinished(job *sim.Job) error {
	if m.sim == nil {
		return fmt.Errorf("scheduler monitor: job %s finished: %w", job.ID(), errNotStarted)
	}
	if !job.IsFinished() {
		return nil
	}
	m.info.Makespan = m.sim.CurrentTime()

	accumulate(&m.sums.slowdown, &m.info.MaxSlowdown, job.Slowdown)
	accumulate(&m.sums.ppSlowdown, &m.info.MaxPPSlowdown, job.PerProcessorSlowdown)
	accumulate(&m.sums.stretch, &m.info.MaxStretch, job.Stretch)
	accumulate(&m.sums.waiting, &m.info.MaxWaitingTime, job.WaitingTime)
	accumulate(&m.sums.turnaround, &m.info.MaxTurnaroundTime, job.TurnaroundTime)

	m.info.NbJobsFinished++
	if job.State() == sim.JobStateCompletedSuccessfully {
		m.info.NbJobsSuccess++
	} else {
		m.info.NbJobsKilled++
	}
	return nil
}

// accumulate adds a defined metric to its running sum and maximum.
func accumulate(sum, maximum *float64, metric func() (float64, bool)) {
	v, ok := metric()
	if !ok {
		return
	}
	*sum += v
	*maximum = math.Max(*maximum, v)
}

func (m *SchedulerMonitor) Info() SchedulerInfo { return m.info }

var schedulerColumns = []string{
	"makespan", "max_slowdown", "max_pp_slowdown", "max_stretch", "max_waiting_time", "max_turnaround_time",
	"mean_slowdown", "mean_pp_slowdown", "mean_stretch", "mean_waiting_time", "mean_turnaround_time",
	"nb_jobs", "nb_jobs_finished", "nb_jobs_killed", "nb_jobs_rejected", "nb_jobs_success",
}

func (i SchedulerInfo) cells() []string {
	return []string{
		formatFloat(i.Makespan),
		formatFloat(i.MaxSlowdown),
		formatFloat(i.MaxPPSlowdown),
		formatFloat(i.MaxStretch),
		formatFloat(i.MaxWaitingTime),
		formatFloat(i.MaxTurnaroundTime),
		formatFloat(i.MeanSlowdown),
		formatFloat(i.MeanPPSlowdown),
		formatFloat(i.MeanStretch),
		formatFloat(i.MeanWaitingTime),
		formatFloat(i.MeanTurnaroundTime),
		strconv.Itoa(i.NbJobs),
		strconv.Itoa(i.NbJobsFinished),
		strconv.Itoa(i.NbJobsKilled),
		strconv.Itoa(i.NbJobsRejected),
		strconv.Itoa(i.NbJobsSuccess),
	}
}

func (m *SchedulerMonitor) Table() Table {
	return Table{Columns: schedulerColumns, Rows: [][]string{m.info.cells()}}
}
