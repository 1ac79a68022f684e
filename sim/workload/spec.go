package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tanaxer01/batsim-go/sim"
	"github.com/tanaxer01/batsim-go/sim/procset"
)

// ScenarioSpec is the top-level description of a replayed simulation: a
// platform, named profiles, jobs, and the ordered engine steps that drive them.
// Loaded from YAML via LoadScenarioSpec(path).
type ScenarioSpec struct {
	Version  string        `yaml:"version"`
	Name     string        `yaml:"name"`
	Workload string        `yaml:"workload"`
	Platform PlatformSpec  `yaml:"platform"`
	Profiles []ProfileSpec `yaml:"profiles"`
	Jobs     []JobSpec     `yaml:"jobs"`
	Steps    []StepSpec    `yaml:"steps"`
}

// PlatformSpec lists the host groups of the platform.
type PlatformSpec struct {
	Hosts []HostSpec `yaml:"hosts"`
}

// HostSpec describes a group of identical hosts.
type HostSpec struct {
	IDs     string           `yaml:"ids"`             // interval set, e.g. "0-3 8"
	State   string           `yaml:"state,omitempty"` // default IDLE
	PStates []PowerStateSpec `yaml:"pstates,omitempty"`
	PState  int              `yaml:"pstate,omitempty"` // initial power state id
}

// PowerStateSpec describes one power state of a host.
type PowerStateSpec struct {
	ID       int     `yaml:"id"`
	Type     string  `yaml:"type,omitempty"` // default NORMAL
	WattIdle float64 `yaml:"watt_idle"`
	WattFull float64 `yaml:"watt_full"`
}

// ProfileSpec describes a named job profile. Which fields apply depends on Type.
type ProfileSpec struct {
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	Delay        float64  `yaml:"delay,omitempty"`
	CPU          Floats   `yaml:"cpu,omitempty"`
	Com          Floats   `yaml:"com,omitempty"`
	Profiles     []string `yaml:"profiles,omitempty"`
	Repeat       *int     `yaml:"repeat,omitempty"` // default 1
	BytesToRead  string   `yaml:"bytes_to_read,omitempty"`
	BytesToWrite string   `yaml:"bytes_to_write,omitempty"`
	Storage      string   `yaml:"storage,omitempty"`
	NbBytes      string   `yaml:"nb_bytes,omitempty"`
	Src          string   `yaml:"src,omitempty"`
	Dest         string   `yaml:"dest,omitempty"`
}

// JobSpec describes a job. It is submitted by a submit step.
type JobSpec struct {
	ID       string   `yaml:"id"`
	Res      int      `yaml:"res"`
	Profile  string   `yaml:"profile"`
	Walltime *float64 `yaml:"walltime,omitempty"`
	User     string   `yaml:"user,omitempty"`
}

// StepSpec is one engine callback applied at Time.
type StepSpec struct {
	Time   float64 `yaml:"time"`
	Action string  `yaml:"action"`
	Job    string  `yaml:"job,omitempty"`
	Hosts  string  `yaml:"hosts,omitempty"`  // interval set
	State  string  `yaml:"state,omitempty"`  // host state, or final job state for terminate
	PState *int    `yaml:"pstate,omitempty"` // host_pstate only
}

// Floats accepts either a single number or a sequence of numbers.
type Floats []float64

func (f *Floats) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var v float64
		if err := value.Decode(&v); err != nil {
			return err
		}
		*f = Floats{v}
		return nil
	}
	var vs []float64
	if err := value.Decode(&vs); err != nil {
		return err
	}
	*f = vs
	return nil
}

// Step actions.
const (
	ActionSubmit     = "submit"
	ActionAllocate   = "allocate"
	ActionStart      = "start"
	ActionTerminate  = "terminate"
	ActionKill       = "kill"
	ActionReject     = "reject"
	ActionHostState  = "host_state"
	ActionHostPState = "host_pstate"
)

// Profile types, as named in batsim workload files.
const (
	ProfileTypeDelay                    = "delay"
	ProfileTypeParallel                 = "parallel"
	ProfileTypeParallelHomogeneous      = "parallel_homogeneous"
	ProfileTypeParallelHomogeneousTotal = "parallel_homogeneous_total"
	ProfileTypeComposed                 = "composed"
	ProfileTypeParallelHomogeneousPFS   = "parallel_homogeneous_pfs"
	ProfileTypeDataStaging              = "data_staging"
)

// Valid value registries.
var (
	validVersions = map[string]bool{"": true, "1": true}
	jobActions    = map[string]bool{
		ActionSubmit: true, ActionAllocate: true, ActionStart: true,
		ActionTerminate: true, ActionKill: true, ActionReject: true,
	}
	hostActions = map[string]bool{
		ActionHostState: true, ActionHostPState: true,
	}
	validProfileTypes = map[string]bool{
		ProfileTypeDelay: true, ProfileTypeParallel: true, ProfileTypeParallelHomogeneous: true,
		ProfileTypeParallelHomogeneousTotal: true, ProfileTypeComposed: true,
		ProfileTypeParallelHomogeneousPFS: true, ProfileTypeDataStaging: true,
	}
	validPowerStateTypes = map[string]bool{
		"": true, string(sim.PowerStateNormal): true,
		string(sim.PowerStateSwitchingOff): true, string(sim.PowerStateSwitchingOn): true,
	}
)

// LoadScenarioSpec reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenarioSpec(path string) (*ScenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenarioSpec(data)
}

// ParseScenarioSpec parses a YAML scenario with the same strictness as
// LoadScenarioSpec.
func ParseScenarioSpec(data []byte) (*ScenarioSpec, error) {
	var spec ScenarioSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if spec.Workload == "" {
		spec.Workload = "w0"
	}
	return &spec, nil
}

// Validate checks the structure of the scenario: references resolve,
// names are unique, and steps are in time order. Profile field constraints
// are checked when profiles are built.
func (s *ScenarioSpec) Validate() error {
	if !validVersions[s.Version] {
		return fmt.Errorf("unknown version %q; valid: 1", s.Version)
	}
	hostIDs, err := s.validatePlatform()
	if err != nil {
		return err
	}

	profiles := make(map[string]bool, len(s.Profiles))
	for i, p := range s.Profiles {
		prefix := fmt.Sprintf("profiles[%d]", i)
		if p.Name == "" {
			return fmt.Errorf("%s: name is required", prefix)
		}
		if profiles[p.Name] {
			return fmt.Errorf("%s: duplicate profile name %q", prefix, p.Name)
		}
		if !validProfileTypes[p.Type] {
			return fmt.Errorf("%s: unknown profile type %q", prefix, p.Type)
		}
		for _, ref := range p.Profiles {
			if !profiles[ref] {
				return fmt.Errorf("%s: profile %q must be declared before %q", prefix, ref, p.Name)
			}
		}
		profiles[p.Name] = true
	}

	jobs := make(map[string]bool, len(s.Jobs))
	for i, j := range s.Jobs {
		prefix := fmt.Sprintf("jobs[%d]", i)
		if j.ID == "" {
			return fmt.Errorf("%s: id is required", prefix)
		}
		if jobs[j.ID] {
			return fmt.Errorf("%s: duplicate job id %q", prefix, j.ID)
		}
		if !profiles[j.Profile] {
			return fmt.Errorf("%s: unknown profile %q", prefix, j.Profile)
		}
		jobs[j.ID] = true
	}

	last := math.Inf(-1)
	for i, st := range s.Steps {
		prefix := fmt.Sprintf("steps[%d]", i)
		if math.IsNaN(st.Time) || math.IsInf(st.Time, 0) || st.Time < 0 {
			return fmt.Errorf("%s: time must be a finite non-negative number, got %f", prefix, st.Time)
		}
		if st.Time < last {
			return fmt.Errorf("%s: time %g is before previous step time %g", prefix, st.Time, last)
		}
		last = st.Time
		if err := validateStep(prefix, st, jobs, hostIDs); err != nil {
			return err
		}
	}
	return nil
}

func (s *ScenarioSpec) validatePlatform() (procset.Set, error) {
	var all procset.Set
	if len(s.Platform.Hosts) == 0 {
		return all, fmt.Errorf("platform: at least one host group required")
	}
	for i, h := range s.Platform.Hosts {
		prefix := fmt.Sprintf("platform.hosts[%d]", i)
		ids, err := procset.Parse(h.IDs)
		if err != nil {
			return all, fmt.Errorf("%s: ids: %w", prefix, err)
		}
		if ids.IsEmpty() {
			return all, fmt.Errorf("%s: ids must not be empty", prefix)
		}
		if all.Union(ids).Len() != all.Len()+ids.Len() {
			return all, fmt.Errorf("%s: ids %q overlap another host group", prefix, h.IDs)
		}
		all = all.Union(ids)
		if h.State != "" && !sim.HostState(h.State).IsValid() {
			return all, fmt.Errorf("%s: unknown state %q", prefix, h.State)
		}
		for _, ps := range h.PStates {
			if !validPowerStateTypes[ps.Type] {
				return all, fmt.Errorf("%s: power state %d: unknown type %q", prefix, ps.ID, ps.Type)
			}
		}
	}
	return all, nil
}

func validateStep(prefix string, st StepSpec, jobs map[string]bool, hostIDs procset.Set) error {
	switch {
	case jobActions[st.Action]:
		if !jobs[st.Job] {
			return fmt.Errorf("%s: %s: unknown job %q", prefix, st.Action, st.Job)
		}
	case hostActions[st.Action]:
	default:
		return fmt.Errorf("%s: unknown action %q", prefix, st.Action)
	}

	if st.Action == ActionAllocate || hostActions[st.Action] {
		hosts, err := procset.Parse(st.Hosts)
		if err != nil {
			return fmt.Errorf("%s: hosts: %w", prefix, err)
		}
		if hosts.IsEmpty() {
			return fmt.Errorf("%s: %s requires hosts", prefix, st.Action)
		}
		if hostIDs.Union(hosts).Len() != hostIDs.Len() {
			return fmt.Errorf("%s: hosts %q are not all on the platform", prefix, st.Hosts)
		}
	}

	switch st.Action {
	case ActionHostState:
		if !sim.HostState(st.State).IsValid() {
			return fmt.Errorf("%s: unknown host state %q", prefix, st.State)
		}
	case ActionHostPState:
		if st.PState == nil {
			return fmt.Errorf("%s: host_pstate requires pstate", prefix)
		}
	case ActionTerminate:
		switch sim.JobState(st.State) {
		case "", sim.JobStateCompletedSuccessfully, sim.JobStateCompletedFailed, sim.JobStateCompletedWalltimeReached:
		default:
			return fmt.Errorf("%s: unknown final state %q", prefix, st.State)
		}
	}
	return nil
}
