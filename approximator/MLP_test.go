package approximator

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/samuelfneumann/advantage/initwfn"
	"github.com/samuelfneumann/advantage/network"
	"github.com/samuelfneumann/advantage/scope"
	"github.com/samuelfneumann/advantage/solver"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

func newConfig(t *testing.T, batch int) MLPConfig {
	sol, err := solver.NewVanilla(0.05, 1, -1)
	require.NoError(t, err)

	return MLPConfig{
		Features:    2,
		Outputs:     1,
		BatchSize:   batch,
		HiddenSizes: []int{4},
		Biases:      []bool{true},
		Activations: []*network.Activation{network.TanH()},
		InitWFn:     initwfn.New(&initwfn.GlorotUConfig{Gain: 1.0}),
		Solver:      sol,
	}
}

func newSetupMLP(t *testing.T, s scope.Scope, batch int) *MLP {
	m, err := NewMLP(s, newConfig(t, batch))
	require.NoError(t, err)
	require.False(t, m.IsSetup())
	require.NoError(t, m.Setup(context.Background()))
	require.True(t, m.IsSetup())
	return m
}

func TestConfigValidate(t *testing.T) {
	c := newConfig(t, 1)
	c.Biases = nil
	require.Error(t, c.Validate())

	c = newConfig(t, 1)
	c.Solver = nil
	require.Error(t, c.Validate())

	c = newConfig(t, 0)
	require.Error(t, c.Validate())
}

func TestSetupTwice(t *testing.T) {
	m := newSetupMLP(t, scope.New("value_fn"), 1)
	require.Error(t, m.Setup(context.Background()))
}

func TestSetupCancelled(t *testing.T) {
	m, err := NewMLP(scope.New("value_fn"), newConfig(t, 1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, m.Setup(ctx), context.Canceled)
	require.False(t, m.IsSetup())
}

func TestCopyOp(t *testing.T) {
	ctx := context.Background()
	source := newSetupMLP(t, scope.New("value_fn"), 1)

	copied, err := source.CopyObj(scope.New("target", "value_fn"))
	require.NoError(t, err)
	require.Equal(t, "target/value_fn", copied.Scope().String())

	_, err = copied.MakeCopyOp(ctx, source)
	require.Error(t, err, "copy op before setup")

	require.NoError(t, copied.Setup(ctx))
	copyOp, err := copied.MakeCopyOp(ctx, source)
	require.NoError(t, err)
	require.NoError(t, copyOp())

	state := []float64{0.3, -0.7}
	want, err := source.Predict(ctx, state)
	require.NoError(t, err)
	have, err := copied.Predict(ctx, state)
	require.NoError(t, err)
	require.InDeltaSlice(t, want, have, 1e-12)
}

func TestCopyOpIncompatible(t *testing.T) {
	ctx := context.Background()
	source := newSetupMLP(t, scope.New("a"), 1)

	c := newConfig(t, 1)
	c.HiddenSizes = []int{5}
	other, err := NewMLP(scope.New("b"), c)
	require.NoError(t, err)
	require.NoError(t, other.Setup(ctx))

	_, err = other.MakeCopyOp(ctx, source)
	require.Error(t, err)
}

func TestMinimizeUpdate(t *testing.T) {
	ctx := context.Background()
	m := newSetupMLP(t, scope.New("value_fn"), 2)

	target, err := m.Placeholder("target", 2, 1)
	require.NoError(t, err)
	_, err = m.Placeholder("target", 2, 1)
	require.Error(t, err, "duplicate placeholder")

	loss := G.Must(G.Mean(G.Must(G.Square(G.Must(G.Sub(m.Prediction(),
		target))))))
	require.NoError(t, m.Minimize(loss))

	_, err = m.Placeholder("late", 2, 1)
	require.Error(t, err, "placeholder after loss")
	require.Error(t, m.Minimize(loss))

	inputs := map[string][]float64{
		StateInput: {1, 0, 0, 1},
		"target":   {1, -1},
	}
	distance := func() float64 {
		a, err := m.Predict(ctx, []float64{1, 0})
		require.NoError(t, err)
		b, err := m.Predict(ctx, []float64{0, 1})
		require.NoError(t, err)
		return math.Abs(a[0]-1) + math.Abs(b[0]+1)
	}

	before := distance()
	for i := 0; i < 50; i++ {
		require.NoError(t, m.Update(ctx, inputs))
	}
	require.Less(t, distance(), before)

	delete(inputs, "target")
	require.Error(t, m.Update(ctx, inputs))
}

func TestFromGradient(t *testing.T) {
	ctx := context.Background()
	m := newSetupMLP(t, scope.New("policy"), 1)

	// Descending the prediction itself must decrease it
	signal := G.Must(G.Sum(m.Prediction()))
	require.NoError(t, m.FromGradient(signal))

	state := []float64{0.5, 0.5}
	before, err := m.Predict(ctx, state)
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx, map[string][]float64{StateInput: state}))
	after, err := m.Predict(ctx, state)
	require.NoError(t, err)
	require.Less(t, after[0], before[0])
}

func TestUpdateBeforeLoss(t *testing.T) {
	m := newSetupMLP(t, scope.New("value_fn"), 1)
	err := m.Update(context.Background(),
		map[string][]float64{StateInput: {1, 1}})
	require.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	source := newSetupMLP(t, scope.New("value_fn"), 1)
	dest := newSetupMLP(t, scope.New("value_fn"), 1)

	var buf bytes.Buffer
	require.NoError(t, source.Save(&buf))
	require.NoError(t, dest.Load(&buf))

	state := []float64{-0.1, 0.9}
	want, err := source.Predict(ctx, state)
	require.NoError(t, err)
	have, err := dest.Predict(ctx, state)
	require.NoError(t, err)
	require.InDeltaSlice(t, want, have, 1e-12)
}
