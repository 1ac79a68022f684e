package workload

import (
	"fmt"

	"github.com/docker/go-units"

	"github.com/tanaxer01/batsim-go/sim"
	"github.com/tanaxer01/batsim-go/sim/procset"
)

// BuildProfiles constructs the declared profiles in order. Composed profiles
// may only reference profiles declared before them.
func (s *ScenarioSpec) BuildProfiles() (map[string]sim.JobProfile, error) {
	built := make(map[string]sim.JobProfile, len(s.Profiles))
	for _, p := range s.Profiles {
		profile, err := buildProfile(p, built)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		built[p.Name] = profile
	}
	return built, nil
}

func buildProfile(p ProfileSpec, built map[string]sim.JobProfile) (sim.JobProfile, error) {
	switch p.Type {
	case ProfileTypeDelay:
		return sim.NewDelayProfile(p.Name, p.Delay)
	case ProfileTypeParallel:
		return sim.NewParallelProfile(p.Name, p.CPU, p.Com)
	case ProfileTypeParallelHomogeneous, ProfileTypeParallelHomogeneousTotal:
		cpu, com, err := homogeneousAmounts(p)
		if err != nil {
			return nil, err
		}
		if p.Type == ProfileTypeParallelHomogeneous {
			return sim.NewParallelHomogeneousProfile(p.Name, cpu, com)
		}
		return sim.NewParallelHomogeneousTotalProfile(p.Name, cpu, com)
	case ProfileTypeComposed:
		parts := make([]sim.JobProfile, 0, len(p.Profiles))
		for _, ref := range p.Profiles {
			part, ok := built[ref]
			if !ok {
				return nil, fmt.Errorf("%w: unknown profile %q", sim.ErrInvalidProfile, ref)
			}
			parts = append(parts, part)
		}
		repeat := 1
		if p.Repeat != nil {
			repeat = *p.Repeat
		}
		return sim.NewComposedProfile(p.Name, parts, repeat)
	case ProfileTypeParallelHomogeneousPFS:
		read, err := parseBytes("bytes_to_read", p.BytesToRead)
		if err != nil {
			return nil, err
		}
		write, err := parseBytes("bytes_to_write", p.BytesToWrite)
		if err != nil {
			return nil, err
		}
		storage := p.Storage
		if storage == "" {
			storage = sim.DefaultStorage
		}
		return sim.NewParallelHomogeneousPFSProfile(p.Name, read, write, storage)
	case ProfileTypeDataStaging:
		n, err := parseBytes("nb_bytes", p.NbBytes)
		if err != nil {
			return nil, err
		}
		return sim.NewDataStagingProfile(p.Name, n, p.Src, p.Dest)
	}
	return nil, fmt.Errorf("%w: unknown profile type %q", sim.ErrInvalidProfile, p.Type)
}

func homogeneousAmounts(p ProfileSpec) (cpu, com float64, err error) {
	if len(p.CPU) > 1 || len(p.Com) > 1 {
		return 0, 0, fmt.Errorf("%w: %s takes a single cpu and com amount", sim.ErrInvalidProfile, p.Type)
	}
	if len(p.CPU) == 1 {
		cpu = p.CPU[0]
	}
	if len(p.Com) == 1 {
		com = p.Com[0]
	}
	return cpu, com, nil
}

// parseBytes reads a size such as "512", "10MB" or "1.5GB". Empty is zero.
func parseBytes(field, s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := units.FromHumanSize(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", sim.ErrInvalidProfile, field, err)
	}
	return float64(n), nil
}

// BuildPlatform constructs the hosts in ascending id order and attaches them to bus.
func (s *ScenarioSpec) BuildPlatform(bus *sim.Bus) (*sim.Platform, error) {
	byID := make(map[int]*sim.Host)
	var all procset.Set
	for i, hs := range s.Platform.Hosts {
		ids, err := procset.Parse(hs.IDs)
		if err != nil {
			return nil, fmt.Errorf("%w: platform.hosts[%d]: %v", sim.ErrInvalidPlatform, i, err)
		}
		state := sim.HostIdle
		if hs.State != "" {
			state = sim.HostState(hs.State)
		}
		pstates := make([]sim.PowerState, 0, len(hs.PStates))
		for _, ps := range hs.PStates {
			typ := sim.PowerStateNormal
			if ps.Type != "" {
				typ = sim.PowerStateType(ps.Type)
			}
			pstates = append(pstates, sim.PowerState{ID: ps.ID, Type: typ, WattIdle: ps.WattIdle, WattFull: ps.WattFull})
		}
		for _, id := range ids.IDs() {
			h, err := sim.NewHost(id, state, pstates, hs.PState)
			if err != nil {
				return nil, err
			}
			byID[id] = h
		}
		all = all.Union(ids)
	}

	hosts := make([]*sim.Host, 0, all.Len())
	for _, id := range all.IDs() {
		hosts = append(hosts, byID[id])
	}
	return sim.NewPlatform(bus, hosts...)
}

// BuildJobs constructs the declared jobs attached to bus, keyed by job id.
func (s *ScenarioSpec) BuildJobs(bus *sim.Bus, profiles map[string]sim.JobProfile) (map[string]*sim.Job, error) {
	jobs := make(map[string]*sim.Job, len(s.Jobs))
	for _, js := range s.Jobs {
		profile, ok := profiles[js.Profile]
		if !ok {
			return nil, fmt.Errorf("%w: job %s: unknown profile %q", sim.ErrInvalidJob, js.ID, js.Profile)
		}
		opts := []sim.JobOption{sim.WithBus(bus)}
		if js.Walltime != nil {
			opts = append(opts, sim.WithWalltime(*js.Walltime))
		}
		if js.User != "" {
			opts = append(opts, sim.WithUser(js.User))
		}
		job, err := sim.NewJob(js.ID, s.Workload, js.Res, profile, 0, opts...)
		if err != nil {
			return nil, err
		}
		jobs[js.ID] = job
	}
	return jobs, nil
}
