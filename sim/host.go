package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tanaxer01/batsim-go/sim/events"
)

// HostState is the operational state of a compute host.
type HostState string

const (
	HostIdle         HostState = "IDLE"
	HostComputing    HostState = "COMPUTING"
	HostSwitchingOff HostState = "SWITCHING_OFF"
	HostSwitchingOn  HostState = "SWITCHING_ON"
	HostSleeping     HostState = "SLEEPING"
)

// hostTransitions lists the states reachable from each state.
var hostTransitions = map[HostState][]HostState{
	HostIdle:         {HostComputing, HostSwitchingOff},
	HostComputing:    {HostIdle},
	HostSwitchingOff: {HostSleeping},
	HostSleeping:     {HostSwitchingOn},
	HostSwitchingOn:  {HostIdle},
}

// IsValid reports whether s is one of the known host states.
func (s HostState) IsValid() bool {
	_, ok := hostTransitions[s]
	return ok
}

// PowerStateType classifies a power state.
type PowerStateType string

const (
	PowerStateNormal       PowerStateType = "NORMAL"
	PowerStateSwitchingOff PowerStateType = "SWITCHING_OFF"
	PowerStateSwitchingOn  PowerStateType = "SWITCHING_ON"
)

// PowerState is a named operating point of a host.
type PowerState struct {
	ID       int
	Type     PowerStateType
	WattIdle float64 // draw while not computing
	WattFull float64 // nameplate draw while computing
}

// Host is a compute resource. Its state and power state are changed by the
// engine only; everything else reads it.
type Host struct {
	id      int
	state   HostState
	pstate  *PowerState
	pstates map[int]PowerState

	observers events.Registry[HostEvent, *Host]
	bus       *Bus
}

// NewHost creates a host in the given state. Host ids are non-negative.
// pstates may be empty, in which case the host reports no power. When
// pstates is not empty, initial must be the id of one of them.
func NewHost(id int, state HostState, pstates []PowerState, initial int) (*Host, error) {
	if id < 0 {
		return nil, fmt.Errorf("%w: host id must be >= 0, got %d", ErrInvalidPlatform, id)
	}
	if !state.IsValid() {
		return nil, fmt.Errorf("%w: host %d: unknown state %q", ErrInvalidPlatform, id, state)
	}
	h := &Host{id: id, state: state, pstates: make(map[int]PowerState, len(pstates))}
	for _, ps := range pstates {
		if _, dup := h.pstates[ps.ID]; dup {
			return nil, fmt.Errorf("%w: host %d: duplicate power state %d", ErrInvalidPlatform, id, ps.ID)
		}
		switch ps.Type {
		case PowerStateNormal, PowerStateSwitchingOff, PowerStateSwitchingOn:
		default:
			return nil, fmt.Errorf("%w: host %d: power state %d has unknown type %q", ErrInvalidPlatform, id, ps.ID, ps.Type)
		}
		h.pstates[ps.ID] = ps
	}
	if len(pstates) > 0 {
		ps, ok := h.pstates[initial]
		if !ok {
			return nil, fmt.Errorf("%w: host %d: initial power state %d not defined", ErrInvalidPlatform, id, initial)
		}
		h.pstate = &ps
	}
	return h, nil
}

func (h *Host) ID() int          { return h.id }
func (h *Host) State() HostState { return h.state }

// PowerState returns a copy of the current power state, or nil.
func (h *Host) PowerState() *PowerState {
	if h.pstate == nil {
		return nil
	}
	ps := *h.pstate
	return &ps
}

// Power returns the current instantaneous draw in watts. ok is false when the
// host has no power state.
func (h *Host) Power() (watts float64, ok bool) {
	if h.pstate == nil {
		return 0, false
	}
	if h.state == HostComputing {
		return h.pstate.WattFull, true
	}
	return h.pstate.WattIdle, true
}

func (h *Host) IsIdle() bool      { return h.state == HostIdle }
func (h *Host) IsComputing() bool { return h.state == HostComputing }
func (h *Host) IsSleeping() bool  { return h.state == HostSleeping }

func (h Host) String() string {
	return fmt.Sprintf("Host: (ID: %d, State: %s)", h.id, h.state)
}

// Subscribe registers handler for the next dispatch of kind on this host only.
func (h *Host) Subscribe(kind HostEvent, handler events.Handler[*Host]) {
	h.observers.Subscribe(kind, handler)
}

// SetState moves the host to state and dispatches HostStateChanged.
func (h *Host) SetState(state HostState) error {
	if !state.IsValid() {
		return fmt.Errorf("%w: host %d: unknown state %q", ErrInvalidState, h.id, state)
	}
	allowed := false
	for _, next := range hostTransitions[h.state] {
		if next == state {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: host %d cannot go from %s to %s", ErrInvalidState, h.id, h.state, state)
	}
	logrus.Debugf("host %d: %s -> %s", h.id, h.state, state)
	h.state = state
	return h.dispatch(HostStateChanged)
}

// SetPowerState switches the host to the power state with the given id and
// dispatches HostPowerStateChanged.
func (h *Host) SetPowerState(id int) error {
	ps, ok := h.pstates[id]
	if !ok {
		return fmt.Errorf("%w: host %d has no power state %d", ErrInvalidState, h.id, id)
	}
	logrus.Debugf("host %d: power state -> %d (%s)", h.id, id, ps.Type)
	h.pstate = &ps
	return h.dispatch(HostPowerStateChanged)
}

func (h *Host) dispatch(kind HostEvent) error {
	err := h.observers.Dispatch(kind, h)
	if h.bus != nil {
		err = errors.Join(err, h.bus.Hosts.Dispatch(kind, h))
	}
	return err
}

// Platform is the fixed, ordered set of hosts of a simulation.
type Platform struct {
	hosts []*Host
	index map[int]*Host
}

// NewPlatform builds a platform from hosts, attaching each of them to bus
// (which may be nil). Host ids must be unique.
func NewPlatform(bus *Bus, hosts ...*Host) (*Platform, error) {
	p := &Platform{hosts: make([]*Host, 0, len(hosts)), index: make(map[int]*Host, len(hosts))}
	for _, h := range hosts {
		if h == nil {
			return nil, fmt.Errorf("%w: nil host", ErrInvalidPlatform)
		}
		if _, dup := p.index[h.id]; dup {
			return nil, fmt.Errorf("%w: duplicate host id %d", ErrInvalidPlatform, h.id)
		}
		h.bus = bus
		p.hosts = append(p.hosts, h)
		p.index[h.id] = h
	}
	return p, nil
}

// Size returns the number of hosts.
func (p *Platform) Size() int { return len(p.hosts) }

// Hosts returns the hosts in platform order. The slice is a copy; the hosts are not.
func (p *Platform) Hosts() []*Host {
	return append([]*Host(nil), p.hosts...)
}

// Host returns the host with the given id.
func (p *Platform) Host(id int) (*Host, bool) {
	h, ok := p.index[id]
	return h, ok
}
