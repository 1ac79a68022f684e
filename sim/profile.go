package sim

import (
	"fmt"
	"strings"

	units "github.com/docker/go-units"
)

// JobProfileType enumerates the execution recipes a job can simulate.
type JobProfileType int

const (
	ProfileDelay JobProfileType = iota
	ProfileParallel
	ProfileParallelHomogeneous
	ProfileParallelHomogeneousTotal
	ProfileComposed
	ProfileParallelHomogeneousPFS
	ProfileDataStaging
)

var profileTypeNames = map[JobProfileType]string{
	ProfileDelay:                    "DELAY",
	ProfileParallel:                 "PARALLEL",
	ProfileParallelHomogeneous:      "PARALLEL_HOMOGENEOUS",
	ProfileParallelHomogeneousTotal: "PARALLEL_HOMOGENEOUS_TOTAL",
	ProfileComposed:                 "COMPOSED",
	ProfileParallelHomogeneousPFS:   "PARALLEL_HOMOGENEOUS_PFS",
	ProfileDataStaging:              "DATA_STAGING",
}

func (t JobProfileType) String() string {
	if name, ok := profileTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("JobProfileType(%d)", int(t))
}

// JobProfile is the immutable description of a simulated workload.
// The set of implementations is closed: only the variants in this file
// satisfy it.
type JobProfile interface {
	Name() string
	Type() JobProfileType
	fmt.Stringer

	sealed()
}

type profileBase struct {
	name string
}

func (p profileBase) Name() string { return p.name }
func (profileBase) sealed()        {}

func newProfileBase(name string) (profileBase, error) {
	if name == "" {
		return profileBase{}, fmt.Errorf("%w: profile name must not be empty", ErrInvalidProfile)
	}
	return profileBase{name: name}, nil
}

// DelayProfile sleeps for a fixed number of seconds.
type DelayProfile struct {
	profileBase
	delay float64
}

func NewDelayProfile(name string, delay float64) (*DelayProfile, error) {
	base, err := newProfileBase(name)
	if err != nil {
		return nil, err
	}
	return &DelayProfile{profileBase: base, delay: delay}, nil
}

func (p *DelayProfile) Type() JobProfileType { return ProfileDelay }

// Delay returns the sleep time in seconds.
func (p *DelayProfile) Delay() float64 { return p.delay }

func (p *DelayProfile) String() string {
	return fmt.Sprintf("%s(%s, delay=%gs)", p.Type(), p.name, p.delay)
}

// ParallelProfile computes cpu[i] flops on the i-th allocated host and
// transfers com[i*n+j] bytes from host i to host j.
type ParallelProfile struct {
	profileBase
	cpu []float64
	com []float64
}

func NewParallelProfile(name string, cpu, com []float64) (*ParallelProfile, error) {
	base, err := newProfileBase(name)
	if err != nil {
		return nil, err
	}
	if len(com) != len(cpu)*len(cpu) {
		return nil, fmt.Errorf("%w: profile %q: com must be a [host x host] matrix of size %d, got %d",
			ErrInvalidProfile, name, len(cpu)*len(cpu), len(com))
	}
	return &ParallelProfile{
		profileBase: base,
		cpu:         append([]float64(nil), cpu...),
		com:         append([]float64(nil), com...),
	}, nil
}

func (p *ParallelProfile) Type() JobProfileType { return ProfileParallel }

// CPU returns a copy of the per-host computation amounts.
func (p *ParallelProfile) CPU() []float64 { return append([]float64(nil), p.cpu...) }

// Com returns a copy of the row-major host-to-host communication matrix.
func (p *ParallelProfile) Com() []float64 { return append([]float64(nil), p.com...) }

func (p *ParallelProfile) String() string {
	return fmt.Sprintf("%s(%s, hosts=%d)", p.Type(), p.name, len(p.cpu))
}

// ParallelHomogeneousProfile runs the same computation and communication on every host.
type ParallelHomogeneousProfile struct {
	profileBase
	cpu float64
	com float64
}

func NewParallelHomogeneousProfile(name string, cpu, com float64) (*ParallelHomogeneousProfile, error) {
	base, err := newProfileBase(name)
	if err != nil {
		return nil, err
	}
	return &ParallelHomogeneousProfile{profileBase: base, cpu: cpu, com: com}, nil
}

func (p *ParallelHomogeneousProfile) Type() JobProfileType { return ProfileParallelHomogeneous }
func (p *ParallelHomogeneousProfile) CPU() float64         { return p.cpu }
func (p *ParallelHomogeneousProfile) Com() float64         { return p.com }

func (p *ParallelHomogeneousProfile) String() string {
	return fmt.Sprintf("%s(%s, cpu=%g, com=%s)", p.Type(), p.name, p.cpu, units.BytesSize(p.com))
}

// ParallelHomogeneousTotalProfile splits total computation and communication
// evenly across the allocated hosts.
type ParallelHomogeneousTotalProfile struct {
	profileBase
	cpu float64
	com float64
}

func NewParallelHomogeneousTotalProfile(name string, cpu, com float64) (*ParallelHomogeneousTotalProfile, error) {
	base, err := newProfileBase(name)
	if err != nil {
		return nil, err
	}
	return &ParallelHomogeneousTotalProfile{profileBase: base, cpu: cpu, com: com}, nil
}

func (p *ParallelHomogeneousTotalProfile) Type() JobProfileType {
	return ProfileParallelHomogeneousTotal
}
func (p *ParallelHomogeneousTotalProfile) CPU() float64 { return p.cpu }
func (p *ParallelHomogeneousTotalProfile) Com() float64 { return p.com }

func (p *ParallelHomogeneousTotalProfile) String() string {
	return fmt.Sprintf("%s(%s, cpu=%g, com=%s)", p.Type(), p.name, p.cpu, units.BytesSize(p.com))
}

// ComposedProfile executes a sequence of profiles, repeat times.
type ComposedProfile struct {
	profileBase
	profiles []JobProfile
	repeat   int
}

func NewComposedProfile(name string, profiles []JobProfile, repeat int) (*ComposedProfile, error) {
	base, err := newProfileBase(name)
	if err != nil {
		return nil, err
	}
	if repeat < 1 {
		return nil, fmt.Errorf("%w: profile %q: repeat must be greater than 0, got %d", ErrInvalidProfile, name, repeat)
	}
	for i, p := range profiles {
		if !isKnownProfile(p) {
			return nil, fmt.Errorf("%w: profile %q: element %d is not a job profile", ErrInvalidProfile, name, i)
		}
	}
	return &ComposedProfile{
		profileBase: base,
		profiles:    append([]JobProfile(nil), profiles...),
		repeat:      repeat,
	}, nil
}

func (p *ComposedProfile) Type() JobProfileType { return ProfileComposed }
func (p *ComposedProfile) Repeat() int          { return p.repeat }

// Profiles returns a copy of the profile sequence.
func (p *ComposedProfile) Profiles() []JobProfile {
	return append([]JobProfile(nil), p.profiles...)
}

func (p *ComposedProfile) String() string {
	names := make([]string, len(p.profiles))
	for i, sub := range p.profiles {
		names[i] = sub.Name()
	}
	return fmt.Sprintf("%s(%s, [%s] x%d)", p.Type(), p.name, strings.Join(names, " "), p.repeat)
}

// ParallelHomogeneousPFSProfile moves data between the allocated hosts and a storage resource.
type ParallelHomogeneousPFSProfile struct {
	profileBase
	bytesToRead  float64
	bytesToWrite float64
	storage      string
}

// DefaultStorage is the storage label used when none is given.
const DefaultStorage = "pfs"

func NewParallelHomogeneousPFSProfile(name string, bytesToRead, bytesToWrite float64, storage string) (*ParallelHomogeneousPFSProfile, error) {
	base, err := newProfileBase(name)
	if err != nil {
		return nil, err
	}
	if bytesToRead < 0 {
		return nil, fmt.Errorf("%w: profile %q: bytes_to_read must be >= 0, got %g", ErrInvalidProfile, name, bytesToRead)
	}
	if bytesToWrite < 0 {
		return nil, fmt.Errorf("%w: profile %q: bytes_to_write must be >= 0, got %g", ErrInvalidProfile, name, bytesToWrite)
	}
	if storage == "" {
		return nil, fmt.Errorf("%w: profile %q: storage label must not be empty", ErrInvalidProfile, name)
	}
	return &ParallelHomogeneousPFSProfile{
		profileBase:  base,
		bytesToRead:  bytesToRead,
		bytesToWrite: bytesToWrite,
		storage:      storage,
	}, nil
}

func (p *ParallelHomogeneousPFSProfile) Type() JobProfileType { return ProfileParallelHomogeneousPFS }
func (p *ParallelHomogeneousPFSProfile) BytesToRead() float64 { return p.bytesToRead }
func (p *ParallelHomogeneousPFSProfile) BytesToWrite() float64 {
	return p.bytesToWrite
}
func (p *ParallelHomogeneousPFSProfile) Storage() string { return p.storage }

func (p *ParallelHomogeneousPFSProfile) String() string {
	return fmt.Sprintf("%s(%s, read=%s, write=%s, storage=%s)", p.Type(), p.name,
		units.BytesSize(p.bytesToRead), units.BytesSize(p.bytesToWrite), p.storage)
}

// DataStagingProfile transfers bytes between two storage resources.
type DataStagingProfile struct {
	profileBase
	nbBytes float64
	src     string
	dest    string
}

func NewDataStagingProfile(name string, nbBytes float64, src, dest string) (*DataStagingProfile, error) {
	base, err := newProfileBase(name)
	if err != nil {
		return nil, err
	}
	if nbBytes < 0 {
		return nil, fmt.Errorf("%w: profile %q: nb_bytes must be >= 0, got %g", ErrInvalidProfile, name, nbBytes)
	}
	if src == "" {
		return nil, fmt.Errorf("%w: profile %q: src label must not be empty", ErrInvalidProfile, name)
	}
	if dest == "" {
		return nil, fmt.Errorf("%w: profile %q: dest label must not be empty", ErrInvalidProfile, name)
	}
	return &DataStagingProfile{profileBase: base, nbBytes: nbBytes, src: src, dest: dest}, nil
}

func (p *DataStagingProfile) Type() JobProfileType { return ProfileDataStaging }
func (p *DataStagingProfile) NbBytes() float64     { return p.nbBytes }
func (p *DataStagingProfile) Src() string          { return p.src }
func (p *DataStagingProfile) Dest() string         { return p.dest }

func (p *DataStagingProfile) String() string {
	return fmt.Sprintf("%s(%s, %s %s -> %s)", p.Type(), p.name, units.BytesSize(p.nbBytes), p.src, p.dest)
}

// isKnownProfile reports whether p is a non-nil value of one of the variants.
func isKnownProfile(p JobProfile) bool {
	switch v := p.(type) {
	case *DelayProfile:
		return v != nil
	case *ParallelProfile:
		return v != nil
	case *ParallelHomogeneousProfile:
		return v != nil
	case *ParallelHomogeneousTotalProfile:
		return v != nil
	case *ComposedProfile:
		return v != nil
	case *ParallelHomogeneousPFSProfile:
		return v != nil
	case *DataStagingProfile:
		return v != nil
	default:
		return false
	}
}
