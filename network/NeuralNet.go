// Package network implements feed forward neural networks built on
// Gorgonia computational graphs.
package network

import (
	"fmt"

	"github.com/samuelfneumann/advantage/scope"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet implements a neural network whose forward pass has been
// added to a computational graph
type NeuralNet interface {
	// Graph returns the computational graph holding the network
	Graph() *G.ExprGraph

	// Scope returns the Scope in which the network's nodes are named
	Scope() scope.Scope

	// CloneWithBatch returns a copy of the network in a new graph,
	// taking inputs with a different batch size
	CloneWithBatch(int) (NeuralNet, error)

	BatchSize() int
	Features() int
	Outputs() int

	// Input returns the input node of the network, of shape
	// (BatchSize, Features)
	Input() *G.Node

	// SetInput sets the value of the input node from a flattened,
	// row major batch of feature vectors
	SetInput([]float64) error

	// Set sets the weights of the network to those of another network
	// of the same architecture
	Set(NeuralNet) error

	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Output returns the value of the prediction after the graph has
	// been run
	Output() G.Value

	// Prediction returns the node holding the network's output, of
	// shape (BatchSize, Outputs)
	Prediction() *G.Node
}

// CopyLearnables sets the value of each node in dest to a copy of the
// value of the corresponding node in source. No value is changed
// unless every pair of nodes has the same shape.
func CopyLearnables(dest, source G.Nodes) error {
	if len(source) != len(dest) {
		return fmt.Errorf("copyLearnables: invalid number of learnables"+
			"\n\twant(%v)\n\thave(%v)", len(dest), len(source))
	}

	values := make([]tensor.Tensor, len(dest))
	for i := range dest {
		if !dest[i].Shape().Eq(source[i].Shape()) {
			return fmt.Errorf("copyLearnables: incompatible shapes for %v"+
				"\n\twant(%v)\n\thave(%v)", dest[i].Name(), dest[i].Shape(),
				source[i].Shape())
		}
		value, ok := source[i].Value().(tensor.Tensor)
		if !ok {
			return fmt.Errorf("copyLearnables: %v has no tensor value",
				source[i].Name())
		}
		values[i] = value
	}

	for i := range dest {
		if err := G.Let(dest[i], values[i].Clone().(tensor.Tensor)); err != nil {
			return fmt.Errorf("copyLearnables: %v", err)
		}
	}
	return nil
}
