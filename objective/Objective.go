// Package objective implements the objectives that turn a stream of
// environment transitions into updates of a function approximator.
//
// An Objective converts each ingested environment step into a
// transition, stores completed transitions in a replay buffer, and on
// Optimize samples batches from the buffer and updates its
// approximator once per batch. Value-gradient objectives regress the
// approximator onto n-step returns, policy-gradient objectives ascend
// a policy return built on the approximator's graph.
package objective

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/advantage/approximator"
	"github.com/samuelfneumann/advantage/expreplay"
	"github.com/samuelfneumann/advantage/scope"
	ts "github.com/samuelfneumann/advantage/timestep"
	G "gorgonia.org/gorgonia"
)

// Objective trains a single approximator from environment steps. An
// Objective is not safe for concurrent use: Ingest and Optimize must
// be called from one training loop.
type Objective interface {
	// Setup builds the loss of the objective on the approximator's
	// graph. The approximator must be set up first, and Setup may be
	// called only once.
	Setup(ctx context.Context) error

	// Ingest converts a raw environment step into a transition and
	// stores it
	Ingest(raw map[string]interface{}) error

	// Optimize samples batches of batchSize transitions and updates
	// the approximator once per batch
	Optimize(ctx context.Context, batchSize int) error

	// ImprovementSteps returns the number of Optimize calls which
	// improved the approximator
	ImprovementSteps() int
}

// EpisodeEnder is implemented by objectives which must be told when an
// episode is cut off without reaching a terminal state
type EpisodeEnder interface {
	EndEpisode() error
}

// base implements the functionality shared by all objectives
type base struct {
	scope      scope.Scope
	replay     expreplay.ExperienceReplayer
	fn         approximator.Approximator
	iterations int

	improvementSteps int
	regularizers     []Regularizer
	isSetup          bool
}

// newBase returns a new base objective which performs iterations
// updates of fn per call to Optimize
func newBase(op string, s scope.Scope, replay expreplay.ExperienceReplayer,
	fn approximator.Approximator, iterations int) (base, error) {
	if replay == nil {
		return base{}, &Error{Op: op, Err: fmt.Errorf("%w: nil replay "+
			"buffer", ErrInvalidConfig)}
	}
	if fn == nil {
		return base{}, &Error{Op: op, Err: fmt.Errorf("%w: nil "+
			"approximator", ErrInvalidConfig)}
	}
	if iterations < 1 {
		return base{}, &Error{Op: op, Err: fmt.Errorf("%w: iterations "+
			"must be positive, have %v", ErrInvalidConfig, iterations)}
	}

	return base{
		scope:      s,
		replay:     replay,
		fn:         fn,
		iterations: iterations,
	}, nil
}

// Scope returns the namespace of the objective's nodes
func (b *base) Scope() scope.Scope {
	return b.scope
}

// Approximator returns the approximator trained by the objective
func (b *base) Approximator() approximator.Approximator {
	return b.fn
}

// Replay returns the replay buffer the objective stores transitions in
func (b *base) Replay() expreplay.ExperienceReplayer {
	return b.replay
}

// Iterations returns the number of updates performed per Optimize
func (b *base) Iterations() int {
	return b.iterations
}

// ImprovementSteps returns the number of Optimize calls which improved
// the approximator
func (b *base) ImprovementSteps() int {
	return b.improvementSteps
}

// IsSetup returns whether the objective has been set up
func (b *base) IsSetup() bool {
	return b.isSetup
}

// AddRegularizer adds a term to the objective's loss. Regularizers
// must be added before Setup.
func (b *base) AddRegularizer(r Regularizer) error {
	if b.isSetup {
		return &Error{Op: "addRegularizer", Err: ErrAlreadySetup}
	}
	b.regularizers = append(b.regularizers, r)
	return nil
}

// checkSetup returns an error if the objective cannot be set up
func (b *base) checkSetup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &Error{Op: "setup", Err: err}
	}
	if b.isSetup {
		return &Error{Op: "setup", Err: ErrAlreadySetup}
	}
	if !b.fn.IsSetup() {
		return &Error{Op: "setup", Err: ErrApproximatorNotSetup}
	}
	return nil
}

// regularize adds all regularizers to loss
func (b *base) regularize(loss *G.Node) (*G.Node, error) {
	for i, r := range b.regularizers {
		term, err := r(b.fn.Learnables())
		if err != nil {
			return nil, fmt.Errorf("regularizer %v: %v", i, err)
		}
		if loss, err = G.Add(loss, term); err != nil {
			return nil, fmt.Errorf("regularizer %v: %v", i, err)
		}
	}
	return loss, nil
}

// makeElement converts a raw environment step into a transition using
// the replay buffer's element strategy. The transition is rejected
// unless the replay buffer could store it.
func (b *base) makeElement(raw map[string]interface{}) (ts.Transition,
	error) {
	t, err := b.replay.Element().MakeElement(raw)
	if err != nil {
		return ts.Transition{}, &Error{Op: "ingest", Err: err}
	}
	if err := t.Validate(); err != nil {
		return ts.Transition{}, &Error{Op: "ingest", Err: fmt.Errorf(
			"%w: %v", ErrInvalidTransition, err)}
	}

	features, actions := b.replay.FeatureSize(), b.replay.ActionSize()
	switch {
	case t.State.Len() != features:
		err = fmt.Errorf("%w: state size %v, want %v",
			ErrInvalidTransition, t.State.Len(), features)
	case t.NextState.Len() != features:
		err = fmt.Errorf("%w: next state size %v, want %v",
			ErrInvalidTransition, t.NextState.Len(), features)
	case t.Action.Len() != actions:
		err = fmt.Errorf("%w: action size %v, want %v",
			ErrInvalidTransition, t.Action.Len(), actions)
	}
	if err != nil {
		return ts.Transition{}, &Error{Op: "ingest", Err: err}
	}
	return t, nil
}

// optimize samples iterations batches of batchSize transitions and
// updates the approximator once per batch, using feed to construct the
// approximator's inputs from a batch. If batchSize is not positive or
// the replay buffer cannot yet produce full batches, no update is
// performed and updated is false. Otherwise improvementSteps is
// incremented once.
func (b *base) optimize(ctx context.Context, batchSize int,
	feed func(expreplay.Batch) map[string][]float64) (updated bool,
	err error) {
	if !b.isSetup {
		return false, &Error{Op: "optimize", Err: ErrNotSetup}
	}
	if err := ctx.Err(); err != nil {
		return false, &Error{Op: "optimize", Err: err}
	}
	if batchSize <= 0 {
		return false, nil
	}
	if batchSize != b.fn.BatchSize() {
		return false, &Error{Op: "optimize", Err: fmt.Errorf("%w: batch "+
			"size %v does not match approximator batch size %v",
			ErrInvalidConfig, batchSize, b.fn.BatchSize())}
	}

	batches, err := b.replay.SampleBatches(batchSize, b.iterations)
	if err != nil {
		return false, &Error{Op: "optimize", Err: err}
	}
	if len(batches) == 0 {
		return false, nil
	}
	for _, batch := range batches {
		if batch.Size != batchSize {
			return false, nil
		}
	}

	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return false, &Error{Op: "optimize", Err: err}
		}
		if err := b.fn.Update(ctx, feed(batch)); err != nil {
			return false, &Error{Op: "optimize", Err: err}
		}
	}

	b.improvementSteps++
	return true, nil
}
