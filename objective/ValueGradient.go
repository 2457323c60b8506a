package objective

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/advantage/approximator"
	"github.com/samuelfneumann/advantage/buffer/nstep"
	"github.com/samuelfneumann/advantage/expreplay"
	"github.com/samuelfneumann/advantage/scope"
	G "gorgonia.org/gorgonia"
)

// ValueGradient regresses an approximator onto n-step returns.
//
// Ingested transitions are held in an n-step buffer. Each new reward
// is folded into the returns of all buffered transitions. When a
// transition ends an episode, or the buffer holds steps transitions,
// the buffer is flushed into the replay buffer. A flush of a full,
// non-terminal window first folds in a bootstrapped estimate of the
// value of the newest next state.
//
// If the approximator has more than one output, its outputs are taken
// to be action values and actions must be stored one-hot, for example
// with expreplay.OneHotElement.
type ValueGradient struct {
	base
	buffer    *nstep.Buffer
	bootstrap BootstrapFunc

	targetName string
	actionName string
	loss       *G.Node
}

// NewValueGradient returns a new ValueGradient objective. The discount
// must be in (0, 1] and steps must be positive.
func NewValueGradient(s scope.Scope, replay expreplay.ExperienceReplayer,
	fn approximator.Approximator, discount float64, iterations, steps int,
	bootstrap BootstrapFunc) (*ValueGradient, error) {
	b, err := newBase("newValueGradient", s, replay, fn, iterations)
	if err != nil {
		return nil, err
	}
	if bootstrap == nil {
		return nil, &Error{Op: "newValueGradient", Err: fmt.Errorf(
			"%w: nil bootstrap function", ErrInvalidConfig)}
	}

	buffer, err := nstep.New(steps, discount)
	if err != nil {
		return nil, &Error{Op: "newValueGradient",
			Err: fmt.Errorf("%w: %v", ErrInvalidConfig, err)}
	}

	return &ValueGradient{
		base:       b,
		buffer:     buffer,
		bootstrap:  bootstrap,
		targetName: s.Name("bellman_target"),
		actionName: s.Name("action_taken"),
	}, nil
}

// Discount returns the discount factor
func (v *ValueGradient) Discount() float64 {
	return v.buffer.Discount()
}

// Steps returns the length of the n-step window
func (v *ValueGradient) Steps() int {
	return v.buffer.Steps()
}

// Pending returns the number of transitions waiting in the n-step
// window
func (v *ValueGradient) Pending() int {
	return v.buffer.Len()
}

// Loss returns the loss node, which is nil before Setup
func (v *ValueGradient) Loss() *G.Node {
	return v.loss
}

// Setup adds the half squared error between the approximator's
// prediction and the n-step return to the approximator's graph
func (v *ValueGradient) Setup(ctx context.Context) error {
	if err := v.checkSetup(ctx); err != nil {
		return err
	}
	if err := v.buildLoss(); err != nil {
		return err
	}
	v.isSetup = true
	return nil
}

// buildLoss adds the loss to the approximator's graph. It does nothing
// if the loss has already been built.
func (v *ValueGradient) buildLoss() error {
	if v.loss != nil {
		return nil
	}

	batch := v.fn.BatchSize()
	targets, err := v.fn.Placeholder(v.targetName, batch)
	if err != nil {
		return &Error{Op: "setup", Err: err}
	}

	// Select the value of the action taken when predicting action
	// values
	prediction := v.fn.Prediction()
	if v.fn.Outputs() > 1 {
		actions, err := v.fn.Placeholder(v.actionName, batch,
			v.fn.Outputs())
		if err != nil {
			return &Error{Op: "setup", Err: err}
		}
		prediction = G.Must(G.HadamardProd(prediction, actions))
	}
	prediction, err = G.Sum(prediction, 1)
	if err != nil {
		return &Error{Op: "setup", Err: err}
	}

	loss := G.Must(G.Sub(targets, prediction))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Mean(loss))
	loss = G.Must(G.Mul(G.NewConstant(0.5), loss))

	if loss, err = v.regularize(loss); err != nil {
		return &Error{Op: "setup", Err: err}
	}
	if err := v.fn.Minimize(loss); err != nil {
		return &Error{Op: "setup", Err: err}
	}

	v.loss = loss
	return nil
}

// Ingest adds an environment step to the n-step window, flushing the
// window to the replay buffer if the step ends an episode or fills
// the window. A window whose flush failed is flushed again before the
// step is added.
func (v *ValueGradient) Ingest(raw map[string]interface{}) error {
	t, err := v.makeElement(raw)
	if err != nil {
		return err
	}
	if err := v.retryFlush(); err != nil {
		return err
	}

	if v.buffer.Len() > 0 {
		v.buffer.Fold(t.Reward)
	}
	if err := v.buffer.Push(t); err != nil {
		return &Error{Op: "ingest", Err: err}
	}

	if t.Done || v.buffer.Full() {
		return v.flush(!t.Done)
	}
	return nil
}

// EndEpisode flushes a window cut off by the end of an episode that
// did not reach a terminal state. The returns of the window are
// bootstrapped from the newest next state.
func (v *ValueGradient) EndEpisode() error {
	newest, ok := v.buffer.Newest()
	if !ok {
		return nil
	}
	return v.flush(!newest.Done)
}

// retryFlush flushes a window left behind by a failed flush
func (v *ValueGradient) retryFlush() error {
	newest, ok := v.buffer.Newest()
	if !ok || !(newest.Done || v.buffer.Full()) {
		return nil
	}
	return v.flush(!newest.Done)
}

// flush moves the n-step window to the replay buffer, first folding
// in a bootstrapped estimate of the newest next state if bootstrap.
// The window is cleared only once the replay buffer accepts it.
func (v *ValueGradient) flush(bootstrap bool) error {
	var value float64
	if bootstrap {
		newest, _ := v.buffer.Newest()
		var err error
		if value, err = v.bootstrap(newest.NextState); err != nil {
			return &Error{Op: "flush", Err: err}
		}
	}

	if err := v.replay.Push(v.buffer.Folded(value)...); err != nil {
		return &Error{Op: "flush", Err: err}
	}
	v.buffer.Clear()
	return nil
}

// Optimize regresses the approximator onto the n-step returns of
// iterations sampled batches
func (v *ValueGradient) Optimize(ctx context.Context, batchSize int) error {
	_, err := v.optimize(ctx, batchSize, v.feed)
	return err
}

// feed returns the approximator inputs for a batch
func (v *ValueGradient) feed(b expreplay.Batch) map[string][]float64 {
	inputs := map[string][]float64{
		approximator.StateInput: b.State,
		v.targetName:            b.NStepReturn,
	}
	if v.fn.Outputs() > 1 {
		inputs[v.actionName] = b.Action
	}
	return inputs
}
