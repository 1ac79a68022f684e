package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(t *testing.T, res int, opts ...JobOption) *Job {
	t.Helper()
	profile, err := NewDelayProfile("delay", 10)
	require.NoError(t, err)
	job, err := NewJob("1", "w0", res, profile, 0, opts...)
	require.NoError(t, err)
	return job
}

// runJob drives a job through submit, allocate, start and terminate.
func runJob(t *testing.T, job *Job, subtime, start, stop float64) {
	t.Helper()
	hosts := make([]int, job.Res())
	for i := range hosts {
		hosts[i] = i
	}
	require.NoError(t, job.Submit(subtime))
	require.NoError(t, job.Allocate(hosts))
	require.NoError(t, job.Start(start))
	require.NoError(t, job.Terminate(stop, JobStateCompletedSuccessfully))
}

func TestJobState_Constants_HaveExpectedStringValues(t *testing.T) {
	assert.Equal(t, JobState("UNKNOWN"), JobStateUnknown)
	assert.Equal(t, JobState("COMPLETED_SUCCESSFULLY"), JobStateCompletedSuccessfully)
	assert.Equal(t, JobState("REJECTED"), JobStateRejected)
}

func TestJobState_IsTerminal(t *testing.T) {
	for _, s := range []JobState{JobStateUnknown, JobStateSubmitted, JobStateAllocated, JobStateRunning} {
		assert.False(t, s.IsTerminal(), s)
	}
	for _, s := range []JobState{JobStateCompletedSuccessfully, JobStateCompletedFailed,
		JobStateCompletedWalltimeReached, JobStateCompletedKilled, JobStateRejected} {
		assert.True(t, s.IsTerminal(), s)
	}
}

func TestNewJob_RequiredFields_SetCorrectly(t *testing.T) {
	// GIVEN required and optional field values
	profile, err := NewDelayProfile("delay", 10)
	require.NoError(t, err)

	// WHEN NewJob is called
	job, err := NewJob("42", "w0", 2, profile, 5, WithWalltime(100), WithUser("alice"))
	require.NoError(t, err)

	// THEN identity and fields MUST match
	assert.Equal(t, "w0!42", job.ID())
	assert.Equal(t, "42", job.Name())
	assert.Equal(t, "w0", job.Workload())
	assert.Equal(t, 2, job.Res())
	assert.Equal(t, 5.0, job.Subtime())
	assert.Equal(t, "alice", job.User())
	assert.Same(t, profile, job.Profile().(*DelayProfile))
	walltime, ok := job.Walltime()
	assert.True(t, ok)
	assert.Equal(t, 100.0, walltime)

	// AND the engine-owned fields start unset
	assert.Equal(t, JobStateUnknown, job.State())
	assert.Nil(t, job.Allocation())
	_, ok = job.StartTime()
	assert.False(t, ok)
	_, ok = job.StopTime()
	assert.False(t, ok)
	assert.Contains(t, job.String(), "UNKNOWN")
}

func TestNewJob_ConstructionErrors(t *testing.T) {
	profile, err := NewDelayProfile("delay", 10)
	require.NoError(t, err)
	var nilProfile *DelayProfile

	tests := []struct {
		name    string
		jobName string
		res     int
		profile JobProfile
		opts    []JobOption
	}{
		{"empty name", "", 1, profile, nil},
		{"zero res", "1", 0, profile, nil},
		{"negative res", "1", -2, profile, nil},
		{"nil profile", "1", 1, nil, nil},
		{"typed nil profile", "1", 1, nilProfile, nil},
		{"zero walltime", "1", 1, profile, []JobOption{WithWalltime(0)}},
		{"NaN walltime", "1", 1, profile, []JobOption{WithWalltime(math.NaN())}},
		{"infinite walltime", "1", 1, profile, []JobOption{WithWalltime(math.Inf(1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NewJob(tt.jobName, "w0", tt.res, tt.profile, 0, tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidJob)
			assert.Nil(t, job)
		})
	}
}

func TestJob_Lifecycle_HappyPath(t *testing.T) {
	job := newTestJob(t, 2)

	require.NoError(t, job.Submit(10))
	assert.True(t, job.IsSubmitted())
	assert.Equal(t, 10.0, job.Subtime())

	require.NoError(t, job.Allocate([]int{3, 4}))
	assert.True(t, job.IsRunnable())
	assert.Equal(t, []int{3, 4}, job.Allocation())

	require.NoError(t, job.Start(15))
	assert.True(t, job.IsRunning())
	assert.False(t, job.IsFinished())

	require.NoError(t, job.Terminate(25, JobStateCompletedFailed))
	assert.Equal(t, JobStateCompletedFailed, job.State())
	assert.True(t, job.IsFinished())
}

func TestJob_Submit_Errors(t *testing.T) {
	job := newTestJob(t, 1)
	assert.ErrorIs(t, job.Submit(-1), ErrInvalidState)
	assert.Equal(t, JobStateUnknown, job.State())

	require.NoError(t, job.Submit(0))
	assert.ErrorIs(t, job.Submit(1), ErrInvalidState, "double submit")
}

func TestJob_Allocate_Errors(t *testing.T) {
	job := newTestJob(t, 2)
	require.NoError(t, job.Submit(0))

	assert.ErrorIs(t, job.Allocate([]int{1}), ErrInvalidState, "wrong resource count")
	assert.Nil(t, job.Allocation())

	assert.ErrorIs(t, job.Allocate([]int{3, 3}), ErrInvalidState, "duplicate host")
	assert.Nil(t, job.Allocation())
	assert.Equal(t, JobStateSubmitted, job.State())

	require.NoError(t, job.Allocate([]int{1, 2}))
	assert.ErrorIs(t, job.Allocate([]int{5, 6}), ErrInvalidState, "double allocation")
	assert.Equal(t, []int{1, 2}, job.Allocation(), "allocation is never overwritten")
}

func TestJob_Allocation_LengthEqualsRes(t *testing.T) {
	for res := 1; res <= 4; res++ {
		job := newTestJob(t, res)
		hosts := make([]int, res)
		for i := range hosts {
			hosts[i] = i
		}
		require.NoError(t, job.Allocate(hosts))
		assert.Len(t, job.Allocation(), job.Res())
	}
}

func TestJob_Allocation_ReturnsCopy(t *testing.T) {
	job := newTestJob(t, 1)
	hosts := []int{7}
	require.NoError(t, job.Allocate(hosts))
	hosts[0] = 8
	job.Allocation()[0] = 9
	assert.Equal(t, []int{7}, job.Allocation())
}

func TestJob_Start_Errors(t *testing.T) {
	job := newTestJob(t, 1)
	require.NoError(t, job.Submit(10))
	assert.ErrorIs(t, job.Start(10), ErrInvalidState, "not allocated")

	require.NoError(t, job.Allocate([]int{0}))
	assert.ErrorIs(t, job.Start(9), ErrInvalidState, "before subtime")

	require.NoError(t, job.Start(10))
	assert.ErrorIs(t, job.Start(11), ErrInvalidState, "double start")
	start, _ := job.StartTime()
	assert.Equal(t, 10.0, start)
}

func TestJob_Kill(t *testing.T) {
	job := newTestJob(t, 1)
	require.NoError(t, job.Submit(0))
	assert.ErrorIs(t, job.Kill(5), ErrInvalidState, "not started")

	require.NoError(t, job.Allocate([]int{0}))
	require.NoError(t, job.Start(2))
	assert.ErrorIs(t, job.Kill(1), ErrInvalidState, "before start")

	require.NoError(t, job.Kill(7))
	assert.Equal(t, JobStateCompletedKilled, job.State())
	stop, ok := job.StopTime()
	assert.True(t, ok)
	assert.Equal(t, 7.0, stop)

	assert.ErrorIs(t, job.Kill(8), ErrInvalidState, "stop time is set once")
	assert.ErrorIs(t, job.Terminate(8, JobStateCompletedSuccessfully), ErrInvalidState)
}

func TestJob_Terminate_Errors(t *testing.T) {
	job := newTestJob(t, 1)
	assert.ErrorIs(t, job.Terminate(1, JobStateCompletedSuccessfully), ErrInvalidState, "not started")

	require.NoError(t, job.Submit(0))
	require.NoError(t, job.Allocate([]int{0}))
	require.NoError(t, job.Start(5))

	for _, bad := range []JobState{JobStateCompletedKilled, JobStateRunning, JobStateRejected, JobStateUnknown} {
		assert.ErrorIs(t, job.Terminate(6, bad), ErrInvalidState, bad)
	}
	assert.ErrorIs(t, job.Terminate(4, JobStateCompletedSuccessfully), ErrInvalidState, "before start")
	assert.Equal(t, JobStateRunning, job.State())

	require.NoError(t, job.Terminate(6, JobStateCompletedWalltimeReached))
	assert.Equal(t, JobStateCompletedWalltimeReached, job.State())
}

func TestJob_NonFiniteTimes_AreRejected(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		t.Run("submit", func(t *testing.T) {
			job := newTestJob(t, 1)
			assert.ErrorIs(t, job.Submit(bad), ErrInvalidState, "%g", bad)
			assert.Equal(t, JobStateUnknown, job.State())
		})
		t.Run("start", func(t *testing.T) {
			job := newTestJob(t, 1)
			require.NoError(t, job.Submit(0))
			require.NoError(t, job.Allocate([]int{0}))
			assert.ErrorIs(t, job.Start(bad), ErrInvalidState, "%g", bad)
			_, ok := job.StartTime()
			assert.False(t, ok)
		})
		t.Run("stop", func(t *testing.T) {
			job := newTestJob(t, 1)
			require.NoError(t, job.Submit(0))
			require.NoError(t, job.Allocate([]int{0}))
			require.NoError(t, job.Start(5))
			assert.ErrorIs(t, job.Terminate(bad, JobStateCompletedSuccessfully), ErrInvalidState, "%g", bad)
			assert.ErrorIs(t, job.Kill(bad), ErrInvalidState, "%g", bad)
			assert.Equal(t, JobStateRunning, job.State())
			_, ok := job.Runtime()
			assert.False(t, ok, "runtime stays undefined")
		})
	}
}

func TestJob_Reject_PersistsStateAndDispatches(t *testing.T) {
	job := newTestJob(t, 1)
	require.NoError(t, job.Submit(0))
	fired := 0
	job.Subscribe(JobRejected, func(*Job) error { fired++; return nil })

	require.NoError(t, job.Reject())

	assert.Equal(t, JobStateRejected, job.State())
	assert.True(t, job.IsRejected())
	assert.Equal(t, 1, fired)
	assert.ErrorIs(t, job.Reject(), ErrInvalidState, "terminal")
	assert.ErrorIs(t, job.Allocate([]int{0}), ErrInvalidState, "no allocation after rejection")
}

func TestJob_Reject_RunningJobFails(t *testing.T) {
	job := newTestJob(t, 1)
	require.NoError(t, job.Submit(0))
	require.NoError(t, job.Allocate([]int{0}))
	require.NoError(t, job.Start(0))
	assert.ErrorIs(t, job.Reject(), ErrInvalidState)
	assert.Equal(t, JobStateRunning, job.State())
}

func TestJob_DerivedMetrics(t *testing.T) {
	tests := []struct {
		name                string
		res                 int
		walltime            float64 // 0 means unset
		subtime, start, end float64
		wantWaiting         float64
		wantRuntime         float64
		wantTurnaround      float64
		wantStretch         float64
		wantSlowdown        float64
		wantPPSlowdown      float64
	}{
		{
			name: "no walltime", res: 1, subtime: 0, start: 2, end: 4,
			wantWaiting: 2, wantRuntime: 2, wantTurnaround: 4,
			wantStretch: 1, wantSlowdown: 2, wantPPSlowdown: 2,
		},
		{
			name: "with walltime", res: 2, walltime: 10, subtime: 5, start: 10, end: 20,
			wantWaiting: 5, wantRuntime: 10, wantTurnaround: 15,
			wantStretch: 0.5, wantSlowdown: 1.5, wantPPSlowdown: 1,
		},
		{
			name: "no wait clamps slowdown to one", res: 4, subtime: 3, start: 3, end: 9,
			wantWaiting: 0, wantRuntime: 6, wantTurnaround: 6,
			wantStretch: 0, wantSlowdown: 1, wantPPSlowdown: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []JobOption
			if tt.walltime > 0 {
				opts = append(opts, WithWalltime(tt.walltime))
			}
			job := newTestJob(t, tt.res, opts...)
			runJob(t, job, tt.subtime, tt.start, tt.end)

			waiting, _ := job.WaitingTime()
			runtime, _ := job.Runtime()
			turnaround, _ := job.TurnaroundTime()
			stretch, _ := job.Stretch()
			slowdown, _ := job.Slowdown()
			pp, _ := job.PerProcessorSlowdown()

			assert.InDelta(t, tt.wantWaiting, waiting, 1e-9)
			assert.InDelta(t, tt.wantRuntime, runtime, 1e-9)
			assert.InDelta(t, tt.wantTurnaround, turnaround, 1e-9)
			assert.InDelta(t, tt.wantStretch, stretch, 1e-9)
			assert.InDelta(t, tt.wantSlowdown, slowdown, 1e-9)
			assert.InDelta(t, tt.wantPPSlowdown, pp, 1e-9)

			// waiting = start - subtime and turnaround = waiting + runtime
			start, _ := job.StartTime()
			assert.Equal(t, start-job.Subtime(), waiting)
			assert.Equal(t, waiting+runtime, turnaround)
			assert.GreaterOrEqual(t, slowdown, 1.0)
			assert.GreaterOrEqual(t, pp, 1.0)
		})
	}
}

func TestJob_DerivedMetrics_UndefinedUntilInputsExist(t *testing.T) {
	job := newTestJob(t, 1)
	require.NoError(t, job.Submit(0))

	_, ok := job.WaitingTime()
	assert.False(t, ok)
	_, ok = job.Stretch()
	assert.False(t, ok)

	require.NoError(t, job.Allocate([]int{0}))
	require.NoError(t, job.Start(3))

	_, ok = job.WaitingTime()
	assert.True(t, ok)
	_, ok = job.Runtime()
	assert.False(t, ok)
	_, ok = job.Stretch()
	assert.False(t, ok, "no walltime and no runtime yet")
	_, ok = job.TurnaroundTime()
	assert.False(t, ok)
	_, ok = job.Slowdown()
	assert.False(t, ok)
}

func TestJob_DerivedMetrics_ZeroRuntimeIsUndefined(t *testing.T) {
	job := newTestJob(t, 1)
	runJob(t, job, 0, 5, 5)

	_, ok := job.Slowdown()
	assert.False(t, ok)
	_, ok = job.PerProcessorSlowdown()
	assert.False(t, ok)
	_, ok = job.Stretch()
	assert.False(t, ok)
	turnaround, ok := job.TurnaroundTime()
	assert.True(t, ok)
	assert.Equal(t, 5.0, turnaround)
}

func TestJob_Subscribe_OneShotPerKind(t *testing.T) {
	// GIVEN two subscribers on STARTED
	job := newTestJob(t, 1)
	var order []string
	job.Subscribe(JobStarted, func(j *Job) error { order = append(order, "first"); return nil })
	job.Subscribe(JobStarted, func(j *Job) error { order = append(order, "second"); return nil })
	completed := 0
	job.Subscribe(JobCompleted, func(j *Job) error {
		completed++
		assert.Equal(t, JobStateCompletedSuccessfully, j.State(), "state is applied before dispatch")
		return nil
	})

	// WHEN the job runs to completion
	runJob(t, job, 0, 1, 2)

	// THEN each subscriber ran exactly once, in order
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 1, completed)
}

func TestJob_Dispatch_ReachesBusAfterEntityHandlers(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.OnJob(JobSubmitted, func(j *Job) error { order = append(order, "bus:"+j.ID()); return nil })

	profile, err := NewDelayProfile("d", 1)
	require.NoError(t, err)
	job, err := NewJob("7", "w", 1, profile, 0, WithBus(bus))
	require.NoError(t, err)
	job.Subscribe(JobSubmitted, func(j *Job) error { order = append(order, "job"); return nil })

	require.NoError(t, job.Submit(0))

	assert.Equal(t, []string{"job", "bus:w!7"}, order)
}
