package objective

import (
	"context"
	"errors"
	"testing"

	"github.com/samuelfneumann/advantage/scope"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

// logProbReturn builds a per-sample return from the action taken,
// weighted by the prediction
func logProbReturn(p *PolicyGradient) (*G.Node, error) {
	actions, err := p.ActionTakenPlaceholder(1)
	if err != nil {
		return nil, err
	}
	ret := G.Must(G.HadamardProd(p.Approximator().Prediction(), actions))
	return G.Sum(ret, 1)
}

func newPolicyGradient(t *testing.T, fromGradient bool,
	builder ReturnBuilder) (*PolicyGradient, *fakeApproximator) {
	fn := newSetupFake(scope.New("policy"), features, 1, 2)
	p, err := NewPolicyGradient(scope.New("pg"), newReplay(t), fn, builder,
		2, fromGradient)
	require.NoError(t, err)
	return p, fn
}

func TestLazyPlaceholders(t *testing.T) {
	p, fn := newPolicyGradient(t, false, logProbReturn)

	first, err := p.ActionTakenPlaceholder(1)
	require.NoError(t, err)
	second, err := p.ActionTakenPlaceholder(4)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, []int{2, 1}, []int(second.Shape()))

	next, err := p.NextStatePlaceholder(features)
	require.NoError(t, err)
	again, err := p.NextStatePlaceholder(features)
	require.NoError(t, err)
	require.Same(t, next, again)
	require.Len(t, fn.placeholders, 2)
}

func TestPolicyGradientLoss(t *testing.T) {
	p, fn := newPolicyGradient(t, false, logProbReturn)
	require.NoError(t, p.AddRegularizer(L2(0.1)))
	require.NoError(t, p.Setup(context.Background()))

	require.NotNil(t, fn.loss)
	require.True(t, fn.loss.IsScalar())
	require.False(t, fn.fromGradient)
	require.Equal(t, []int{2}, []int(p.Signal().Shape()))

	// Only the requested placeholder is created
	require.Contains(t, fn.placeholders, "pg/action_taken")
	require.NotContains(t, fn.placeholders, "pg/next_state")
}

func TestPolicyGradientFromGradient(t *testing.T) {
	scalar := func(p *PolicyGradient) (*G.Node, error) {
		return G.Sum(p.Approximator().Prediction())
	}
	p, fn := newPolicyGradient(t, true, scalar)
	require.NoError(t, p.Setup(context.Background()))

	require.True(t, fn.fromGradient)
	require.Nil(t, fn.loss)
	require.Len(t, fn.grads, 1)
	require.Empty(t, fn.placeholders)
}

func TestPolicyGradientSetupErrors(t *testing.T) {
	failing := func(p *PolicyGradient) (*G.Node, error) {
		return nil, errors.New("no return")
	}
	p, _ := newPolicyGradient(t, false, failing)
	require.Error(t, p.Setup(context.Background()))
	require.False(t, p.IsSetup())

	fn := newFake(scope.New("policy"), features, 1, 2)
	p, err := NewPolicyGradient(scope.New("pg"), newReplay(t), fn,
		logProbReturn, 1, false)
	require.NoError(t, err)
	require.True(t, errors.Is(p.Setup(context.Background()),
		ErrApproximatorNotSetup))

	_, err = NewPolicyGradient(scope.New("pg"), newReplay(t), fn, nil, 1,
		false)
	require.True(t, IsConfigError(err))
}

func TestPolicyGradientIngestOptimize(t *testing.T) {
	ctx := context.Background()
	withNext := func(p *PolicyGradient) (*G.Node, error) {
		if _, err := p.NextStatePlaceholder(features); err != nil {
			return nil, err
		}
		return logProbReturn(p)
	}
	p, fn := newPolicyGradient(t, false, withNext)
	require.True(t, errors.Is(p.Optimize(ctx, 2), ErrNotSetup))
	require.NoError(t, p.Setup(ctx))

	// Transitions are stored immediately, with no n-step return
	require.NoError(t, p.Ingest(step(0, 1, false)))
	require.Equal(t, 1, p.Replay().Len())
	require.NoError(t, p.EndEpisode())
	require.Equal(t, 1, p.Replay().Len())

	require.NoError(t, p.Optimize(ctx, 2))
	require.Empty(t, fn.updates)

	require.NoError(t, p.Ingest(step(1, 3, false)))
	require.NoError(t, p.Optimize(ctx, 2))
	require.Len(t, fn.updates, 2)
	require.Equal(t, 1, p.ImprovementSteps())

	inputs := fn.updates[0]
	require.Len(t, inputs, 3)
	require.Equal(t, []float64{0, 1, 1, 1}, inputs["state"])
	require.Equal(t, []float64{0, 0}, inputs["pg/action_taken"])
	require.Equal(t, []float64{1, 1, 2, 1}, inputs["pg/next_state"])
}
