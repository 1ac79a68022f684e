package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPStates = []PowerState{
	{ID: 0, Type: PowerStateNormal, WattIdle: 95, WattFull: 190},
	{ID: 1, Type: PowerStateSwitchingOff, WattIdle: 9, WattFull: 9},
	{ID: 2, Type: PowerStateSwitchingOn, WattIdle: 100, WattFull: 100},
	{ID: 3, Type: PowerStateNormal, WattIdle: 5, WattFull: 5},
}

func TestNewHost_Validation(t *testing.T) {
	_, err := NewHost(-3, HostIdle, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidPlatform, "negative id")

	_, err = NewHost(0, HostState("BROKEN"), nil, 0)
	assert.ErrorIs(t, err, ErrInvalidPlatform)

	_, err = NewHost(0, HostIdle, testPStates, 9)
	assert.ErrorIs(t, err, ErrInvalidPlatform, "initial pstate must exist")

	_, err = NewHost(0, HostIdle, []PowerState{{ID: 0, Type: PowerStateNormal}, {ID: 0, Type: PowerStateNormal}}, 0)
	assert.ErrorIs(t, err, ErrInvalidPlatform, "duplicate pstate")

	_, err = NewHost(0, HostIdle, []PowerState{{ID: 0, Type: "TURBO"}}, 0)
	assert.ErrorIs(t, err, ErrInvalidPlatform, "unknown pstate type")
}

func TestHost_Power_DependsOnStateAndPState(t *testing.T) {
	h, err := NewHost(0, HostIdle, testPStates, 0)
	require.NoError(t, err)

	w, ok := h.Power()
	assert.True(t, ok)
	assert.Equal(t, 95.0, w)

	require.NoError(t, h.SetState(HostComputing))
	w, _ = h.Power()
	assert.Equal(t, 190.0, w)

	bare, err := NewHost(1, HostIdle, nil, 0)
	require.NoError(t, err)
	_, ok = bare.Power()
	assert.False(t, ok)
	assert.Nil(t, bare.PowerState())
}

func TestHost_SetState_Transitions(t *testing.T) {
	h, err := NewHost(0, HostIdle, testPStates, 0)
	require.NoError(t, err)

	assert.ErrorIs(t, h.SetState(HostSleeping), ErrInvalidState, "idle cannot sleep directly")
	assert.ErrorIs(t, h.SetState(HostState("BROKEN")), ErrInvalidState)
	assert.ErrorIs(t, h.SetState(HostIdle), ErrInvalidState, "self transition")

	for _, next := range []HostState{HostSwitchingOff, HostSleeping, HostSwitchingOn, HostIdle, HostComputing, HostIdle} {
		require.NoError(t, h.SetState(next))
		assert.Equal(t, next, h.State())
	}
}

func TestHost_SetPowerState(t *testing.T) {
	h, err := NewHost(0, HostIdle, testPStates, 0)
	require.NoError(t, err)

	fired := 0
	h.Subscribe(HostPowerStateChanged, func(*Host) error { fired++; return nil })

	assert.ErrorIs(t, h.SetPowerState(42), ErrInvalidState)
	require.NoError(t, h.SetPowerState(3))

	assert.Equal(t, 3, h.PowerState().ID)
	assert.Equal(t, 1, fired)
	w, _ := h.Power()
	assert.Equal(t, 5.0, w)
}

func TestHost_PowerState_ReturnsCopy(t *testing.T) {
	h, err := NewHost(0, HostIdle, testPStates, 0)
	require.NoError(t, err)
	h.PowerState().WattIdle = 1
	w, _ := h.Power()
	assert.Equal(t, 95.0, w)
}

func TestNewPlatform_AttachesBusAndIndexes(t *testing.T) {
	bus := NewBus()
	h0, err := NewHost(0, HostIdle, nil, 0)
	require.NoError(t, err)
	h1, err := NewHost(5, HostIdle, nil, 0)
	require.NoError(t, err)

	p, err := NewPlatform(bus, h0, h1)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Size())
	got, ok := p.Host(5)
	assert.True(t, ok)
	assert.Same(t, h1, got)
	_, ok = p.Host(1)
	assert.False(t, ok)

	var seen []int
	bus.OnHost(HostStateChanged, func(h *Host) error { seen = append(seen, h.ID()); return nil })
	require.NoError(t, h1.SetState(HostComputing))
	require.NoError(t, h0.SetState(HostComputing))
	assert.Equal(t, []int{5, 0}, seen)
}

func TestNewPlatform_DuplicateIDs(t *testing.T) {
	h0, _ := NewHost(0, HostIdle, nil, 0)
	h0bis, _ := NewHost(0, HostIdle, nil, 0)
	_, err := NewPlatform(nil, h0, h0bis)
	assert.ErrorIs(t, err, ErrInvalidPlatform)

	_, err = NewPlatform(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidPlatform)
}
