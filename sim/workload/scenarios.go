package workload

import "sort"

// Built-in scenario presets for common replay patterns.
// Each returns a valid ScenarioSpec ready for use with NewReplayer.

// Presets maps preset names to their constructors.
var Presets = map[string]func() *ScenarioSpec{
	"power-cycle":    ScenarioPowerCycle,
	"mixed-outcomes": ScenarioMixedOutcomes,
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func intPtr(v int) *int { return &v }

// energyPStates is a three-state power model: a computing state and the two
// transitions used to put a host to sleep and wake it up.
func energyPStates() []PowerStateSpec {
	return []PowerStateSpec{
		{ID: 0, Type: "NORMAL", WattIdle: 95, WattFull: 190},
		{ID: 1, Type: "NORMAL", WattIdle: 9, WattFull: 9},
		{ID: 2, Type: "SWITCHING_OFF", WattIdle: 100, WattFull: 100},
		{ID: 3, Type: "SWITCHING_ON", WattIdle: 125, WattFull: 125},
	}
}

// ScenarioPowerCycle runs one job on two hosts while two other hosts are
// switched off and back on.
func ScenarioPowerCycle() *ScenarioSpec {
	return &ScenarioSpec{
		Version: "1", Name: "power-cycle", Workload: "w0",
		Platform: PlatformSpec{Hosts: []HostSpec{{IDs: "0-3", PStates: energyPStates()}}},
		Profiles: []ProfileSpec{{Name: "compute", Type: ProfileTypeDelay, Delay: 10}},
		Jobs:     []JobSpec{{ID: "1", Res: 2, Profile: "compute", Walltime: floatPtr(20)}},
		Steps: []StepSpec{
			{Time: 0, Action: ActionSubmit, Job: "1"},
			{Time: 0, Action: ActionAllocate, Job: "1", Hosts: "0-1"},
			{Time: 0, Action: ActionHostState, Hosts: "0-1", State: "COMPUTING"},
			{Time: 0, Action: ActionStart, Job: "1"},
			{Time: 0, Action: ActionHostPState, Hosts: "2-3", PState: intPtr(2)},
			{Time: 0, Action: ActionHostState, Hosts: "2-3", State: "SWITCHING_OFF"},
			{Time: 2, Action: ActionHostPState, Hosts: "2-3", PState: intPtr(1)},
			{Time: 2, Action: ActionHostState, Hosts: "2-3", State: "SLEEPING"},
			{Time: 10, Action: ActionTerminate, Job: "1"},
			{Time: 10, Action: ActionHostState, Hosts: "0-1", State: "IDLE"},
			{Time: 10, Action: ActionHostPState, Hosts: "2-3", PState: intPtr(3)},
			{Time: 10, Action: ActionHostState, Hosts: "2-3", State: "SWITCHING_ON"},
			{Time: 15, Action: ActionHostPState, Hosts: "2-3", PState: intPtr(0)},
			{Time: 15, Action: ActionHostState, Hosts: "2-3", State: "IDLE"},
		},
	}
}

// ScenarioMixedOutcomes submits four jobs that end in success, failure,
// kill and rejection on a platform without power states.
func ScenarioMixedOutcomes() *ScenarioSpec {
	return &ScenarioSpec{
		Version: "1", Name: "mixed-outcomes", Workload: "w0",
		Platform: PlatformSpec{Hosts: []HostSpec{{IDs: "0-1"}}},
		Profiles: []ProfileSpec{
			{Name: "short", Type: ProfileTypeDelay, Delay: 5},
			{Name: "stage-in", Type: ProfileTypeDataStaging, NbBytes: "1GB", Src: "pfs", Dest: "nfs"},
			{Name: "pipeline", Type: ProfileTypeComposed, Profiles: []string{"stage-in", "short"}, Repeat: intPtr(2)},
		},
		Jobs: []JobSpec{
			{ID: "ok", Res: 1, Profile: "short"},
			{ID: "fail", Res: 1, Profile: "pipeline"},
			{ID: "killed", Res: 2, Profile: "short"},
			{ID: "too-big", Res: 2, Profile: "short"},
		},
		Steps: []StepSpec{
			{Time: 0, Action: ActionSubmit, Job: "ok"},
			{Time: 0, Action: ActionSubmit, Job: "fail"},
			{Time: 0, Action: ActionAllocate, Job: "ok", Hosts: "0"},
			{Time: 0, Action: ActionAllocate, Job: "fail", Hosts: "1"},
			{Time: 1, Action: ActionStart, Job: "ok"},
			{Time: 1, Action: ActionStart, Job: "fail"},
			{Time: 2, Action: ActionSubmit, Job: "killed"},
			{Time: 2, Action: ActionSubmit, Job: "too-big"},
			{Time: 2, Action: ActionReject, Job: "too-big"},
			{Time: 6, Action: ActionTerminate, Job: "ok"},
			{Time: 7, Action: ActionTerminate, Job: "fail", State: "COMPLETED_FAILED"},
			{Time: 7, Action: ActionAllocate, Job: "killed", Hosts: "0-1"},
			{Time: 8, Action: ActionStart, Job: "killed"},
			{Time: 9, Action: ActionKill, Job: "killed"},
		},
	}
}

func floatPtr(v float64) *float64 { return &v }
