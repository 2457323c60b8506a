// Package approximator defines the function approximators trained by
// objectives and implements a multi-layered perceptron approximator
// backed by Gorgonia.
//
// An Approximator owns a training graph. Objectives add their own
// input nodes to that graph with Placeholder, build a loss from the
// approximator's Prediction, and hand the loss (or its gradients) back
// with Minimize or ApplyGradients. Update then feeds one batch of data
// and takes a single parameter step.
package approximator

import (
	"context"

	"github.com/samuelfneumann/advantage/scope"
	G "gorgonia.org/gorgonia"
)

// StateInput is the name under which the batch of states is fed to
// Update
const StateInput = "state"

// Approximator implements a parameterized function which maps a state
// to Outputs() values
type Approximator interface {
	// Scope returns the namespace in which the approximator's nodes
	// are named
	Scope() scope.Scope

	// Setup builds the approximator's computational graphs. An
	// Approximator cannot be used by an objective before Setup is
	// called.
	Setup(ctx context.Context) error
	IsSetup() bool

	// Graph returns the training graph
	Graph() *G.ExprGraph

	// Prediction returns the training graph's output node, of shape
	// (BatchSize, Outputs)
	Prediction() *G.Node

	BatchSize() int
	Features() int
	Outputs() int
	Learnables() G.Nodes

	// Placeholder adds an input node with the given name and shape to
	// the training graph. The name should be qualified by the caller's
	// scope. The node is fed by passing data under the same name to
	// Update.
	Placeholder(name string, shape ...int) (*G.Node, error)

	// Minimize sets the scalar loss that Update descends
	Minimize(loss *G.Node) error

	// Gradients returns the gradient of the scalar signal with respect
	// to each learnable
	Gradients(signal *G.Node) (G.Nodes, error)

	// ApplyGradients sets the gradients that Update steps along, one
	// per learnable
	ApplyGradients(grads G.Nodes) error

	// FromGradient sets Update to step along the gradient of signal
	FromGradient(signal *G.Node) error

	// Update feeds one batch of inputs, keyed by placeholder name or
	// StateInput, and takes a single step of the solver
	Update(ctx context.Context, inputs map[string][]float64) error

	// Predict returns the approximator's outputs for a single state
	Predict(ctx context.Context, state []float64) ([]float64, error)

	// CopyObj returns a new, not yet set up, approximator of the same
	// architecture whose nodes are named within s
	CopyObj(s scope.Scope) (Approximator, error)

	// MakeCopyOp returns an operation which, when called, sets the
	// parameters of the receiver equal to the current parameters of
	// source. Both approximators must be set up.
	MakeCopyOp(ctx context.Context, source Approximator) (func() error,
		error)
}
