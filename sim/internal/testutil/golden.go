// Package testutil provides shared test infrastructure for the simulator.
// It locates scenario fixtures under the repository testdata/ directory and
// holds assertion helpers used across sim/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenScenario holds the expected figures of a replayed fixture, as stored
// in testdata/scenarios/<name>.golden.json.
type GoldenScenario struct {
	Scenario string `json:"scenario"`

	// Scheduler
	NbJobs         int     `json:"nb_jobs"`
	NbJobsFinished int     `json:"nb_jobs_finished"`
	NbJobsSuccess  int     `json:"nb_jobs_success"`
	NbJobsKilled   int     `json:"nb_jobs_killed"`
	NbJobsRejected int     `json:"nb_jobs_rejected"`
	Makespan       float64 `json:"makespan"`
	MeanWaiting    float64 `json:"mean_waiting_time"`
	MaxWaiting     float64 `json:"max_waiting_time"`

	// Hosts
	TimeIdle         float64 `json:"time_idle"`
	TimeComputing    float64 `json:"time_computing"`
	TimeSwitchingOff float64 `json:"time_switching_off"`
	TimeSwitchingOn  float64 `json:"time_switching_on"`
	TimeSleeping     float64 `json:"time_sleeping"`
	ConsumedJoules   float64 `json:"consumed_joules"`
	EnergyWaste      float64 `json:"energy_waste"`
	NbSwitches       int     `json:"nb_switches"`

	// Row counts of the time series monitors
	HostStateRows  int `json:"host_state_rows"`
	PStateRows     int `json:"pstate_rows"`
	JobRecordCount int `json:"job_records"`
}

// testdataDir resolves the repository testdata/ directory relative to this
// source file: sim/internal/testutil/ → testdata/.
func testdataDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata")
}

// ScenarioPath returns the path of testdata/scenarios/<name>.yaml.
func ScenarioPath(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(testdataDir(t), "scenarios", name+".yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Scenario fixture %s: %v", name, err)
	}
	return path
}

// LoadGoldenScenario loads testdata/scenarios/<name>.golden.json.
func LoadGoldenScenario(t *testing.T, name string) *GoldenScenario {
	t.Helper()
	path := filepath.Join(testdataDir(t), "scenarios", name+".golden.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden scenario: %v", err)
	}

	var golden GoldenScenario
	if err := json.Unmarshal(data, &golden); err != nil {
		t.Fatalf("Failed to parse golden scenario: %v", err)
	}
	return &golden
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
