package expreplay

import (
	"testing"

	ts "github.com/samuelfneumann/advantage/timestep"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTransition(i int, done bool) ts.Transition {
	f := float64(i)
	state := mat.NewVecDense(2, []float64{f, f + 1})
	next := mat.NewVecDense(2, []float64{f + 1, f + 2})
	action := mat.NewVecDense(1, []float64{f})

	t := ts.NewTransition(state, action, f, next, done)
	t.NStepReturn = 10 * f
	return t
}

func newFifo(t *testing.T, min, max int) ExperienceReplayer {
	replay, err := New(nil, NewFifoSelector(), min, max, 2, 1)
	require.NoError(t, err)
	return replay
}

func TestNewInvalid(t *testing.T) {
	_, err := New(nil, NewFifoSelector(), 0, 10, 2, 1)
	require.Error(t, err)

	_, err = New(nil, NewFifoSelector(), 5, 4, 2, 1)
	require.Error(t, err)

	_, err = New(nil, NewFifoSelector(), 1, 4, 0, 1)
	require.Error(t, err)
}

func TestSampleEmpty(t *testing.T) {
	replay := newFifo(t, 1, 5)

	_, err := replay.Sample(3)
	require.True(t, IsEmptyBuffer(err))

	batches, err := replay.SampleBatches(3, 4)
	require.NoError(t, err)
	require.Empty(t, batches)

	batch, err := replay.Sample(0)
	require.NoError(t, err)
	require.True(t, batch.Empty())
}

func TestSampleInsufficient(t *testing.T) {
	replay := newFifo(t, 3, 5)
	require.NoError(t, replay.Push(newTransition(0, false)))

	_, err := replay.Sample(1)
	require.True(t, IsInsufficientSamples(err))

	batches, err := replay.SampleBatches(1, 2)
	require.NoError(t, err)
	require.Empty(t, batches)
}

func TestPushSample(t *testing.T) {
	replay := newFifo(t, 1, 5)
	require.NoError(t, replay.Push(newTransition(1, false),
		newTransition(2, true)))
	require.Equal(t, 2, replay.Len())

	batch, err := replay.Sample(2)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Size)
	require.Equal(t, []float64{1, 2, 2, 3}, batch.State)
	require.Equal(t, []float64{2, 3, 3, 4}, batch.NextState)
	require.Equal(t, []float64{1, 2}, batch.Action)
	require.Equal(t, []float64{1, 2}, batch.Reward)
	require.Equal(t, []float64{0, 1}, batch.Done)
	require.Equal(t, []float64{10, 20}, batch.NStepReturn)
}

func TestFifoEviction(t *testing.T) {
	replay := newFifo(t, 1, 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, replay.Push(newTransition(i, false)))
	}
	require.Equal(t, 3, replay.Len())

	batch, err := replay.Sample(3)
	require.NoError(t, err)
	require.Equal(t, []float64{2, 3, 4}, batch.Reward)
}

func TestPushInvalidSizeIsAtomic(t *testing.T) {
	replay := newFifo(t, 1, 3)

	bad := newTransition(0, false)
	bad.State = mat.NewVecDense(3, nil)
	bad.NextState = mat.NewVecDense(3, nil)

	require.Error(t, replay.Push(newTransition(1, false), bad))
	require.Equal(t, 0, replay.Len())

	missing := newTransition(0, false)
	missing.Action = nil
	require.Error(t, replay.Push(missing))

	next := newTransition(2, false)
	next.NextState = mat.NewVecDense(3, nil)
	require.Error(t, replay.Push(newTransition(1, false), next))
	require.Equal(t, 0, replay.Len())
}

func TestSizes(t *testing.T) {
	replay := newFifo(t, 1, 3)
	require.Equal(t, 2, replay.FeatureSize())
	require.Equal(t, 1, replay.ActionSize())
}

func TestClear(t *testing.T) {
	replay := newFifo(t, 1, 3)
	require.NoError(t, replay.Push(newTransition(1, false)))
	replay.Clear()
	require.Equal(t, 0, replay.Len())

	_, err := replay.Sample(1)
	require.True(t, IsEmptyBuffer(err))
}

func TestUniformSampleBatches(t *testing.T) {
	replay, err := Config{
		SampleMethod:      Uniform,
		MinReplayCapacity: 2,
		MaxReplayCapacity: 10,
	}.Create(nil, 2, 1, 42)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, replay.Push(newTransition(i, false)))
	}

	batches, err := replay.SampleBatches(8, 3)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	for _, batch := range batches {
		require.Equal(t, 8, batch.Size)
		for _, r := range batch.Reward {
			require.Contains(t, []float64{0, 1, 2, 3}, r)
		}
	}
}

func TestCreateUnknownSelector(t *testing.T) {
	_, err := Config{
		SampleMethod:      "Prioritized",
		MinReplayCapacity: 1,
		MaxReplayCapacity: 1,
	}.Create(nil, 1, 1, 0)
	require.Error(t, err)
}
