package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kind string

const (
	kindStarted kind = "started"
	kindStopped kind = "stopped"
)

type entity struct{ id string }

func TestRegistry_Dispatch_InvokesInOrderThenClearsSlot(t *testing.T) {
	// GIVEN two subscribers on the same kind
	var r Registry[kind, *entity]
	var calls []string
	r.Subscribe(kindStarted, func(e *entity) error { calls = append(calls, "a:"+e.id); return nil })
	r.Subscribe(kindStarted, func(e *entity) error { calls = append(calls, "b:"+e.id); return nil })

	// WHEN the kind is dispatched
	require.NoError(t, r.Dispatch(kindStarted, &entity{id: "j1"}))

	// THEN both run once, in subscription order, and the slot is consumed
	assert.Equal(t, []string{"a:j1", "b:j1"}, calls)
	assert.Equal(t, 0, r.Len(kindStarted))

	// AND a second dispatch reaches nobody
	require.NoError(t, r.Dispatch(kindStarted, &entity{id: "j1"}))
	assert.Len(t, calls, 2)
}

func TestRegistry_SubscribeAfterDispatch_FiresOnNextDispatchOnly(t *testing.T) {
	var r Registry[kind, *entity]
	var first, third int
	r.Subscribe(kindStarted, func(*entity) error { first++; return nil })
	r.Subscribe(kindStarted, func(*entity) error { first++; return nil })
	require.NoError(t, r.Dispatch(kindStarted, &entity{}))

	// WHEN a third handler subscribes after the dispatch
	r.Subscribe(kindStarted, func(*entity) error { third++; return nil })

	// THEN it has not been invoked retroactively
	assert.Equal(t, 0, third)

	// AND the next dispatch invokes only it
	require.NoError(t, r.Dispatch(kindStarted, &entity{}))
	assert.Equal(t, 2, first)
	assert.Equal(t, 1, third)
}

func TestRegistry_ResubscribeDuringDispatch_LandsInFreshSlot(t *testing.T) {
	var r Registry[kind, *entity]
	calls := 0
	var h Handler[*entity]
	h = func(*entity) error {
		calls++
		r.Subscribe(kindStarted, h)
		return nil
	}
	r.Subscribe(kindStarted, h)

	require.NoError(t, r.Dispatch(kindStarted, &entity{}))

	assert.Equal(t, 1, calls, "in-flight dispatch must not pick up the new registration")
	assert.Equal(t, 1, r.Len(kindStarted))
}

func TestRegistry_KindsAreIndependent(t *testing.T) {
	var r Registry[kind, *entity]
	stopped := 0
	r.Subscribe(kindStopped, func(*entity) error { stopped++; return nil })

	require.NoError(t, r.Dispatch(kindStarted, &entity{}))

	assert.Equal(t, 0, stopped)
	assert.Equal(t, 1, r.Len(kindStopped))
}

func TestRegistry_Dispatch_JoinsHandlerErrorsAndRunsAll(t *testing.T) {
	var r Registry[kind, *entity]
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := 0
	r.Subscribe(kindStarted, func(*entity) error { ran++; return errA })
	r.Subscribe(kindStarted, func(*entity) error { ran++; return nil })
	r.Subscribe(kindStarted, func(*entity) error { ran++; return errB })

	err := r.Dispatch(kindStarted, &entity{})

	assert.Equal(t, 3, ran)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestRegistry_NilHandlerIgnored(t *testing.T) {
	var r Registry[kind, *entity]
	r.Subscribe(kindStarted, nil)
	assert.Equal(t, 0, r.Len(kindStarted))
}
