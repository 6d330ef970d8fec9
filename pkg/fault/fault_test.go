package fault

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raising(f *Fault) (err error) {
	defer Catch(&err)
	Raise(f)
	return nil
}

func TestCatchReturnsRaisedFault(t *testing.T) {
	raised := &Fault{Kind: ControlFlow, Tag: "T1", Scope: "mix", Check: "iteration", Expected: 3, Actual: 4, Round: 2, Index: 3}
	err := raising(raised)

	require.Error(t, err)
	f, ok := As(err)
	require.True(t, ok)
	assert.Same(t, raised, f)
	assert.Equal(t, "T1 control-flow violation in mix at iteration: expected 3, got 4 (round 2, index 3)", err.Error())
}

func TestCatchLetsOtherPanicsThrough(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		var err error
		func() {
			defer Catch(&err)
			panic("boom")
		}()
	})
}

func TestCatchWithoutPanic(t *testing.T) {
	err := func() (err error) {
		defer Catch(&err)
		return nil
	}()
	assert.NoError(t, err)
}

func TestFaultError(t *testing.T) {
	type scenario struct {
		fault    *Fault
		expected string
	}

	scenarios := []scenario{
		{
			&Fault{Kind: DataConsistency, Tag: "T4", Scope: "rounds", Check: "exit", Expected: 31, Actual: 30, Round: -1, Index: -1},
			"T4 data-consistency violation in rounds at exit: expected 31, got 30",
		},
		{
			&Fault{Kind: ControlFlow, Tag: "T1", Scope: "round", Check: "check", Expected: 5, Actual: 6, Round: 7, Index: -1},
			"T1 control-flow violation in round at check: expected 5, got 6 (round 7)",
		},
	}

	for _, s := range scenarios {
		assert.EqualValues(t, s.expected, s.fault.Error())
	}
}

func TestFaultDetailIncludesFrame(t *testing.T) {
	err := raising(&Fault{Kind: ControlFlow, Tag: "T1", Scope: "s", Check: "c", Round: -1, Index: -1})
	assert.Contains(t, fmt.Sprintf("%+v", err), "fault_test.go")
	assert.Equal(t, "T1 control-flow violation in s at c: expected 0, got 0", fmt.Sprintf("%v", err))
}

func TestAsOnOtherErrors(t *testing.T) {
	_, ok := As(errors.New("not a fault"))
	assert.False(t, ok)

	_, ok = As(nil)
	assert.False(t, ok)
}

func TestHandlerHalt(t *testing.T) {
	stderr := &bytes.Buffer{}
	handler := NewHandler(stderr)
	code := 0
	handler.SetExit(func(c int) {
		code = c
		panic("exited")
	})

	assert.PanicsWithValue(t, "exited", func() {
		handler.Halt(&Fault{Tag: "T4"})
	})
	assert.Equal(t, ExitCode, code)
	assert.Equal(t, "HARDERR T4 The algorithm failed to execute properly\n", stderr.String())
}

func TestHandlerNeverReturns(t *testing.T) {
	handler := NewHandler(&bytes.Buffer{})
	handler.SetExit(func(int) {})

	assert.Panics(t, func() {
		handler.Halt(&Fault{Tag: "T1"})
	})
}
