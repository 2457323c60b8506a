package network

import (
	"fmt"

	"github.com/samuelfneumann/advantage/scope"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron. A final linear layer
// with a bias unit always maps the last hidden layer to the outputs.
type mlp struct {
	g      *G.ExprGraph
	scope  scope.Scope
	layers []*fcLayer
	input  *G.Node

	numOutputs int
	numInputs  int
	batchSize  int

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with
// outputs output units. The graph parameter g is populated with the
// MLP, and every node the MLP adds to g is named within s.
//
// The MLP has len(hiddenSizes) + 1 layers. For index i, hiddenSizes[i]
// is the number of units in hidden layer i; biases[i] is true if the
// hidden layer has a bias unit; and activations[i] is the activation
// function of hidden layer i. The final layer has a bias unit and no
// activation. The parameter init determines the weight initialization
// scheme.
func NewMLP(features, batch, outputs int, g *G.ExprGraph, s scope.Scope,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if len(hiddenSizes) != len(activations) {
		msg := "newMLP: invalid number of activations\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		msg := "newMLP: invalid number of biases\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}
	if features < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMLP: features (%v), batch (%v), and "+
			"outputs (%v) must be positive", features, batch, outputs)
	}

	sizes := append(append([]int{}, hiddenSizes...), outputs)
	b := append(append([]bool{}, biases...), true)
	acts := append(append([]*Activation{}, activations...), Identity())

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName(s.Name("input")), G.WithInit(G.Zeroes()))

	net := &mlp{
		g:          g,
		scope:      s,
		layers:     addfcLayers(g, s, features, sizes, b, acts, init),
		input:      input,
		numOutputs: outputs,
		numInputs:  features,
		batchSize:  batch,
	}
	if err := net.fwd(); err != nil {
		return nil, fmt.Errorf("newMLP: could not compute forward pass: %v",
			err)
	}
	return net, nil
}

// Graph returns the computational graph of the mlp
func (m *mlp) Graph() *G.ExprGraph {
	return m.g
}

// Scope returns the scope in which the mlp's nodes are named
func (m *mlp) Scope() scope.Scope {
	return m.scope
}

// CloneWithBatch clones an mlp into a new graph with a new input
// batch size
func (m *mlp) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("cloneWithBatch: batch size must be positive")
	}
	graph := G.NewGraph()

	input := G.NewMatrix(graph, tensor.Float64,
		G.WithShape(batchSize, m.numInputs),
		G.WithName(m.scope.Name("input")), G.WithInit(G.Zeroes()))

	layers := make([]*fcLayer, len(m.layers))
	for i := range m.layers {
		layers[i] = m.layers[i].cloneTo(graph)
	}

	net := &mlp{
		g:          graph,
		scope:      m.scope,
		layers:     layers,
		input:      input,
		numOutputs: m.numOutputs,
		numInputs:  m.numInputs,
		batchSize:  batchSize,
	}
	if err := net.fwd(); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: could not compute forward "+
			"pass: %v", err)
	}
	return net, nil
}

// BatchSize returns the batch size of inputs to the mlp
func (m *mlp) BatchSize() int {
	return m.batchSize
}

// Features returns the number of features in a single input vector
func (m *mlp) Features() int {
	return m.numInputs
}

// Outputs returns the number of outputs for a single input vector
func (m *mlp) Outputs() int {
	return m.numOutputs
}

// Input returns the input node of the mlp
func (m *mlp) Input() *G.Node {
	return m.input
}

// SetInput sets the value of the input node before running the forward
// pass.
func (m *mlp) SetInput(input []float64) error {
	if len(input) != m.numInputs*m.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", m.numInputs*m.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(m.input.Shape()...),
	)
	return G.Let(m.input, inputTensor)
}

// Set sets the weights of the mlp to be equal to the weights of
// another network. Both networks must have learnables of identical
// shapes.
func (m *mlp) Set(source NeuralNet) error {
	if err := CopyLearnables(m.Learnables(), source.Learnables()); err != nil {
		return fmt.Errorf("set: %v", err)
	}
	return nil
}

// Learnables returns the learnable nodes in the mlp
func (m *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if m.learnables == nil {
		learnables := make(G.Nodes, 0, 2*len(m.layers))
		for _, l := range m.layers {
			learnables = append(learnables, l.weights)
			if l.bias != nil {
				learnables = append(learnables, l.bias)
			}
		}
		m.learnables = learnables
	}
	return m.learnables
}

// Model returns the learnables nodes with their gradients.
func (m *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if m.model == nil {
		m.model = G.NodesToValueGrads(m.Learnables())
	}
	return m.model
}

// fwd adds the forward pass of the mlp to its graph
func (m *mlp) fwd() error {
	pred := m.input
	var err error
	for i, l := range m.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	m.prediction = pred
	G.Read(m.prediction, &m.predVal)
	return nil
}

// Output returns the output of the mlp after the graph has been run
func (m *mlp) Output() G.Value {
	return m.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the mlp
func (m *mlp) Prediction() *G.Node {
	return m.prediction
}
