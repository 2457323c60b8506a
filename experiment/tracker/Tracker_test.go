package tracker

import (
	"path/filepath"
	"testing"

	ts "github.com/samuelfneumann/advantage/timestep"
	"github.com/stretchr/testify/require"
)

// episode returns the TimeSteps of an episode with the given rewards
func episode(rewards ...float64) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, nil, 0)}
	for i, r := range rewards {
		step := ts.New(ts.Mid, r, nil, i+1)
		if i == len(rewards)-1 {
			step.SetEnd(ts.TerminalStateReached)
		}
		steps = append(steps, step)
	}
	return steps
}

func TestReturn(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "return.bin")
	r := NewReturn(filename)

	for _, step := range episode(1, 2, 3) {
		r.Track(step)
	}
	for _, step := range episode(-1, 1) {
		r.Track(step)
	}

	// Unfinished episodes are not recorded
	for _, step := range episode(5, 5)[:2] {
		r.Track(step)
	}

	require.Equal(t, []float64{6, 0}, r.Returns())
	require.Equal(t, 3.0, r.MeanReturn(10))
	require.Equal(t, 0.0, r.MeanReturn(1))

	require.NoError(t, r.Save())
	data, err := LoadData(filename)
	require.NoError(t, err)
	require.Equal(t, []float64{6, 0}, data)
}

func TestEpisodeLength(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "length.bin")
	e := NewEpisodeLength(filename)

	for _, step := range append(episode(1, 1, 1), episode(1)...) {
		e.Track(step)
	}
	require.Equal(t, []float64{3, 1}, e.Lengths())

	require.NoError(t, e.Save())
	data, err := LoadData(filename)
	require.NoError(t, err)
	require.Equal(t, []float64{3, 1}, data)
}

func TestLoadDataMissing(t *testing.T) {
	_, err := LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)
}
