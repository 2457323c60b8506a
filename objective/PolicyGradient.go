package objective

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/advantage/approximator"
	"github.com/samuelfneumann/advantage/expreplay"
	"github.com/samuelfneumann/advantage/scope"
	G "gorgonia.org/gorgonia"
)

// ReturnBuilder builds the policy return signal of a PolicyGradient
// objective on its approximator's graph. It is called once, during
// Setup, and may request the objective's placeholders.
type ReturnBuilder func(p *PolicyGradient) (*G.Node, error)

// PolicyGradient trains a policy approximator to ascend a policy
// return. Transitions are stored in the replay buffer as soon as they
// are ingested.
//
// If fromGradient is false, the return is a per-sample signal and the
// loss minimized is the negative of its mean plus any regularizers.
// If fromGradient is true, the return must be a scalar and the
// approximator steps along its gradient directly.
type PolicyGradient struct {
	base
	policyReturn ReturnBuilder
	fromGradient bool

	actionTaken *G.Node
	nextState   *G.Node
	actionName  string
	nextName    string

	signal *G.Node
}

// NewPolicyGradient returns a new PolicyGradient objective
func NewPolicyGradient(s scope.Scope, replay expreplay.ExperienceReplayer,
	fn approximator.Approximator, policyReturn ReturnBuilder,
	iterations int, fromGradient bool) (*PolicyGradient, error) {
	b, err := newBase("newPolicyGradient", s, replay, fn, iterations)
	if err != nil {
		return nil, err
	}
	if policyReturn == nil {
		return nil, &Error{Op: "newPolicyGradient", Err: fmt.Errorf(
			"%w: nil policy return", ErrInvalidConfig)}
	}

	return &PolicyGradient{
		base:         b,
		policyReturn: policyReturn,
		fromGradient: fromGradient,
		actionName:   s.Name("action_taken"),
		nextName:     s.Name("next_state"),
	}, nil
}

// FromGradient returns whether the approximator steps along the
// gradient of the policy return directly
func (p *PolicyGradient) FromGradient() bool {
	return p.fromGradient
}

// Signal returns the policy return node, which is nil before Setup
func (p *PolicyGradient) Signal() *G.Node {
	return p.signal
}

// ActionTakenPlaceholder returns the node fed with the batch of
// actions taken, of shape (batch, dim). The node is created on first
// access; later accesses return the same node.
func (p *PolicyGradient) ActionTakenPlaceholder(dim int) (*G.Node, error) {
	if p.actionTaken != nil {
		return p.actionTaken, nil
	}

	node, err := p.fn.Placeholder(p.actionName, p.fn.BatchSize(), dim)
	if err != nil {
		return nil, fmt.Errorf("actionTakenPlaceholder: %v", err)
	}
	p.actionTaken = node
	return node, nil
}

// NextStatePlaceholder returns the node fed with the batch of next
// states, of shape (batch, dim). The node is created on first access;
// later accesses return the same node.
func (p *PolicyGradient) NextStatePlaceholder(dim int) (*G.Node, error) {
	if p.nextState != nil {
		return p.nextState, nil
	}

	node, err := p.fn.Placeholder(p.nextName, p.fn.BatchSize(), dim)
	if err != nil {
		return nil, fmt.Errorf("nextStatePlaceholder: %v", err)
	}
	p.nextState = node
	return node, nil
}

// Setup builds the policy return and sets the approximator's update
func (p *PolicyGradient) Setup(ctx context.Context) error {
	if err := p.checkSetup(ctx); err != nil {
		return err
	}

	signal, err := p.policyReturn(p)
	if err != nil {
		return &Error{Op: "setup", Err: fmt.Errorf("policy return: %v", err)}
	}
	if signal == nil {
		return &Error{Op: "setup", Err: fmt.Errorf("%w: nil policy return",
			ErrInvalidConfig)}
	}

	if p.fromGradient {
		if err := p.fn.FromGradient(signal); err != nil {
			return &Error{Op: "setup", Err: err}
		}
	} else {
		loss, err := G.Mean(signal)
		if err != nil {
			return &Error{Op: "setup", Err: err}
		}
		loss = G.Must(G.Neg(loss))

		if loss, err = p.regularize(loss); err != nil {
			return &Error{Op: "setup", Err: err}
		}
		if err := p.fn.Minimize(loss); err != nil {
			return &Error{Op: "setup", Err: err}
		}
	}

	p.signal = signal
	p.isSetup = true
	return nil
}

// Ingest stores an environment step in the replay buffer
func (p *PolicyGradient) Ingest(raw map[string]interface{}) error {
	t, err := p.makeElement(raw)
	if err != nil {
		return err
	}
	if err := p.replay.Push(t); err != nil {
		return &Error{Op: "ingest", Err: err}
	}
	return nil
}

// EndEpisode does nothing, since transitions are never buffered
func (p *PolicyGradient) EndEpisode() error {
	return nil
}

// Optimize updates the approximator on iterations sampled batches
func (p *PolicyGradient) Optimize(ctx context.Context, batchSize int) error {
	_, err := p.optimize(ctx, batchSize, p.feed)
	return err
}

// feed returns the approximator inputs for a batch, including only
// the placeholders that were requested
func (p *PolicyGradient) feed(b expreplay.Batch) map[string][]float64 {
	inputs := map[string][]float64{
		approximator.StateInput: b.State,
	}
	if p.actionTaken != nil {
		inputs[p.actionName] = b.Action
	}
	if p.nextState != nil {
		inputs[p.nextName] = b.NextState
	}
	return inputs
}
