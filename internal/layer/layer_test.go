package layer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBuffer struct {
	name string
	n    int
}

func (b *testBuffer) Name() string { return b.name }
func (b *testBuffer) Len() int     { return b.n }

type testInvocation string

func (i testInvocation) Kernel() string { return string(i) }

func TestBlob(t *testing.T) {
	b := NewBlob(3, 2)
	require.Len(t, b, 6)
	require.NoError(t, b.Check(3, 2))
	assert.ErrorIs(t, b.Check(2, 2), ErrSizeMismatch)

	copy(b.Row(1, 2), []float32{7, 8})
	assert.Equal(t, Blob{0, 0, 7, 8, 0, 0}, b)
	assert.Equal(t, 3, b.BatchSize(2))
	assert.Equal(t, 0, b.BatchSize(0))
}

func TestIdentity(t *testing.T) {
	a := NewIdentity("dense")
	b := NewIdentity("dense")
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.ID(), a.ID())
	assert.Equal(t, "dense", a.Name())
	assert.Equal(t, "dense", a.String())

	anon := NewIdentity("")
	assert.Empty(t, anon.Name())
	assert.Equal(t, anon.ID().String(), anon.String())
	assert.Equal(t, anon.ID().String(), Describe(anon))
	assert.Equal(t, "<nil>", Describe(nil))
}

type pointerLayer struct {
	Identity
}

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil((*pointerLayer)(nil)))
	assert.False(t, IsNil(&pointerLayer{Identity: NewIdentity("p")}))
	assert.False(t, IsNil(NewIdentity("value")))
	assert.Equal(t, "<nil>", Describe((*pointerLayer)(nil)))
}

func TestGridSize(t *testing.T) {
	assert.Equal(t, 1, Grid{}.Size())
	assert.Equal(t, 6, Grid{Width: 6}.Size())
	assert.Equal(t, 24, Grid{Width: 2, Height: 3, Depth: 4}.Size())
}

func TestInvocationList_Lifecycle(t *testing.T) {
	var l InvocationList
	assert.Equal(t, Uninitialized, l.Phase())
	assert.Panics(t, func() { l.Invocations() })

	calls := 0
	err := l.Initialize(func() ([]Invocation, error) {
		calls++
		return []Invocation{testInvocation("a"), testInvocation("b")}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, Ready, l.Phase())

	first := l.Invocations()
	second := l.Invocations()
	require.Len(t, first, 2)
	assert.Same(t, &first[0], &second[0])

	err = l.Initialize(func() ([]Invocation, error) {
		calls++
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.Equal(t, 1, calls)
	assert.Len(t, l.Invocations(), 2)
}

func TestInvocationList_Empty(t *testing.T) {
	var l InvocationList
	require.NoError(t, l.Initialize(func() ([]Invocation, error) { return nil, nil }))
	invs := l.Invocations()
	assert.NotNil(t, invs)
	assert.Empty(t, invs)
}

func TestInvocationList_Failed(t *testing.T) {
	var l InvocationList
	cause := errors.New("no memory")
	err := l.Initialize(func() ([]Invocation, error) { return nil, cause })
	assert.Same(t, cause, err)
	assert.Equal(t, Failed, l.Phase())
	assert.Equal(t, "failed", l.Phase().String())

	assert.PanicsWithError(t, "contract violation: invocation list read while failed: not initialized", func() {
		l.Invocations()
	})
	assert.ErrorIs(t, l.Initialize(func() ([]Invocation, error) { return nil, nil }), ErrAlreadyInitialized)
}

func TestInvocationList_NilInvocation(t *testing.T) {
	var l InvocationList
	err := l.Initialize(func() ([]Invocation, error) {
		return []Invocation{testInvocation("a"), nil}, nil
	})
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.Equal(t, Failed, l.Phase())
}

func TestCheckBuffer(t *testing.T) {
	owner := NewIdentity("relu")
	require.NoError(t, CheckBuffer(owner, "input", &testBuffer{"x", 4}, 4))

	err := CheckBuffer(owner, "input", &testBuffer{"x", 3}, 4)
	var sizeErr *SizeMismatchError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, "relu", sizeErr.Layer)
	assert.Equal(t, 4, sizeErr.Want)
	assert.Equal(t, 3, sizeErr.Got)
	assert.Equal(t, "layer relu: input: want 4 values, got 3", err.Error())

	assert.ErrorIs(t, CheckBuffer(owner, "output", nil, 4), ErrSizeMismatch)
}

func TestEncodeParameters(t *testing.T) {
	owner := NewIdentity("dense")
	w := Parameter{Values: &testBuffer{"w", 6}, Deltas: &testBuffer{"dw", 6}}
	b := Parameter{Values: &testBuffer{"b", 2}, Deltas: &testBuffer{"db", 2}}
	frozen := Parameter{Values: &testBuffer{"f", 3}}

	var got []string
	EncodeParameters(owner, func(values, deltas Buffer) {
		got = append(got, values.Name()+"/"+deltas.Name())
	}, w, frozen, b)
	assert.Equal(t, []string{"w/dw", "b/db"}, got)

	bad := Parameter{Values: &testBuffer{"w", 6}, Deltas: &testBuffer{"dw", 5}}
	assert.Panics(t, func() {
		EncodeParameters(owner, func(Buffer, Buffer) {}, bad)
	})
	assert.Panics(t, func() {
		EncodeParameters(owner, func(Buffer, Buffer) {}, Parameter{Deltas: &testBuffer{"dw", 1}})
	})
}

func TestErrors(t *testing.T) {
	initErr := &InitializationError{Layer: "dense", Phase: "forward", Err: ErrCapacityExceeded}
	assert.ErrorIs(t, initErr, ErrInitialization)
	assert.ErrorIs(t, initErr, ErrCapacityExceeded)
	assert.Equal(t, "layer dense: forward initialization: buffer capacity exceeded", initErr.Error())

	cv := &ContractViolation{Reason: "nil buffer"}
	assert.ErrorIs(t, cv, ErrContractViolation)
	assert.Equal(t, "contract violation: nil buffer", cv.Error())

	sizeErr := &SizeMismatchError{What: "blob length", Want: 4, Got: 2}
	assert.Equal(t, "blob length: want 4 values, got 2", sizeErr.Error())
	assert.False(t, errors.Is(sizeErr, ErrInitialization))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "Phase(7)", Phase(7).String())
}
