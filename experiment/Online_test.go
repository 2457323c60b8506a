package experiment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/advantage/approximator"
	"github.com/samuelfneumann/advantage/environment/chain"
	"github.com/samuelfneumann/advantage/experiment/checkpointer"
	"github.com/samuelfneumann/advantage/experiment/tracker"
	"github.com/samuelfneumann/advantage/expreplay"
	"github.com/samuelfneumann/advantage/initwfn"
	"github.com/samuelfneumann/advantage/network"
	"github.com/samuelfneumann/advantage/scope"
	"github.com/samuelfneumann/advantage/solver"
	"github.com/stretchr/testify/require"
)

// recorder is an objective which records the calls made to it. Every
// call to Optimize counts as an improvement step.
type recorder struct {
	raws        []map[string]interface{}
	optimized   int
	endEpisodes int
}

func (r *recorder) Setup(context.Context) error { return nil }
func (r *recorder) ImprovementSteps() int       { return r.optimized }
func (r *recorder) EndEpisode() error           { r.endEpisodes++; return nil }

func (r *recorder) Ingest(raw map[string]interface{}) error {
	r.raws = append(r.raws, raw)
	return nil
}

func (r *recorder) Optimize(context.Context, int) error {
	r.optimized++
	return nil
}

type saveCounter struct {
	saves int
}

func (s *saveCounter) Save(w io.Writer) error {
	s.saves++
	_, err := fmt.Fprint(w, s.saves)
	return err
}

// newQ returns an action-value MLP which predicts zero for every action
func newQ(t *testing.T, features int) *approximator.MLP {
	sol, err := solver.NewVanilla(0.1, 1, -1)
	require.NoError(t, err)

	fn, err := approximator.NewMLP(scope.New("q"), approximator.MLPConfig{
		Features:    features,
		Outputs:     2,
		BatchSize:   1,
		HiddenSizes: []int{},
		Biases:      []bool{},
		Activations: []*network.Activation{},
		InitWFn:     initwfn.New(&initwfn.ZeroesConfig{}),
		Solver:      sol,
	})
	require.NoError(t, err)
	require.NoError(t, fn.Setup(context.Background()))
	return fn
}

func TestOnlineEpisodes(t *testing.T) {
	ctx := context.Background()

	// From state 0 every episode lasts exactly two steps, ending
	// either at the goal or at the step limit
	env, err := chain.New(chain.Config{Length: 3, EpisodeSteps: 2,
		GoalReward: 1}, 3)
	require.NoError(t, err)

	obj := &recorder{}
	returns := tracker.NewReturn(filepath.Join(t.TempDir(), "return.bin"))
	exp, err := NewOnline(env, obj, newQ(t, 3), 1, 8, 3, returns)
	require.NoError(t, err)

	dir := t.TempDir()
	counter := &saveCounter{}
	c, err := checkpointer.NewNStep(3, counter,
		checkpointer.FilenameEnumerator(0, filepath.Join(dir, "q"), ".bin"))
	require.NoError(t, err)
	exp.AddCheckpointer(c)

	require.NoError(t, exp.Run(ctx))
	require.Equal(t, 8, exp.Steps())
	require.Len(t, obj.raws, 8)
	require.Equal(t, 8, obj.optimized)

	terminal := 0
	for _, raw := range obj.raws {
		require.Contains(t, []int{chain.Left, chain.Right},
			raw[expreplay.KeyAction])
		if raw[expreplay.KeyDone].(bool) {
			terminal++
		}
	}
	require.Equal(t, 4, terminal+obj.endEpisodes)
	require.Len(t, returns.Returns(), 4)
	require.Equal(t, float64(terminal), returns.MeanReturn(4)*4)

	require.Equal(t, 2, counter.saves)
	_, err = os.Stat(filepath.Join(dir, "q2.bin"))
	require.NoError(t, err)

	require.NoError(t, exp.Save())
}

func TestOnlineCutoffEndsEpisode(t *testing.T) {
	env, err := chain.New(chain.Config{Length: 10, EpisodeSteps: 100}, 1)
	require.NoError(t, err)

	obj := &recorder{}
	exp, err := NewOnline(env, obj, newQ(t, 10), 1, 3, 1)
	require.NoError(t, err)

	ended, err := exp.RunEpisode(context.Background())
	require.NoError(t, err)
	require.True(t, ended)
	require.Equal(t, 1, obj.endEpisodes)
}

func TestOnlineCancelled(t *testing.T) {
	env, err := chain.New(chain.Config{Length: 10, EpisodeSteps: 100}, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exp, err := NewOnline(env, &recorder{}, newQ(t, 10), 1, 3, 1)
	require.NoError(t, err)
	require.ErrorIs(t, exp.Run(ctx), context.Canceled)
}

func TestNewOnlineMismatch(t *testing.T) {
	env, err := chain.New(chain.Config{Length: 4, EpisodeSteps: 5}, 1)
	require.NoError(t, err)

	_, err = NewOnline(env, &recorder{}, newQ(t, 3), 1, 3, 1)
	require.Error(t, err)
}
