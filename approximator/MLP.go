package approximator

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/samuelfneumann/advantage/network"
	"github.com/samuelfneumann/advantage/scope"
	"github.com/samuelfneumann/advantage/solver"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP implements an Approximator using a multi-layered perceptron.
//
// Two copies of the network are kept. The training network takes
// batches of BatchSize states and holds the loss that objectives
// build. The prediction network takes a single state and is set to
// the training network's weights after every Update.
type MLP struct {
	scope  scope.Scope
	config MLPConfig
	solver *solver.Solver

	trainNet   network.NeuralNet
	predictNet network.NeuralNet
	trainVM    G.VM
	predictVM  G.VM

	placeholders map[string]*G.Node

	// model holds the weights and gradients that the solver steps
	// along. It is nil until Minimize or ApplyGradients is called.
	model []G.ValueGrad
}

// NewMLP returns a new MLP approximator named within s. The returned
// MLP must be set up before use.
func NewMLP(s scope.Scope, c MLPConfig) (*MLP, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newMLP: %v", err)
	}

	// Solvers with momentum cannot be shared between approximators
	sol, err := c.Solver.Clone()
	if err != nil {
		return nil, fmt.Errorf("newMLP: could not create solver: %v", err)
	}

	c.Scope = s.String()
	return &MLP{
		scope:        s,
		config:       c,
		solver:       sol,
		placeholders: make(map[string]*G.Node),
	}, nil
}

// Scope returns the namespace of the MLP
func (m *MLP) Scope() scope.Scope {
	return m.scope
}

// Setup builds the training and prediction networks
func (m *MLP) Setup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if m.IsSetup() {
		return fmt.Errorf("setup: approximator %v already set up", m.scope)
	}

	c := m.config
	trainNet, err := network.NewMLP(c.Features, c.BatchSize, c.Outputs,
		G.NewGraph(), m.scope, c.HiddenSizes, c.Biases, c.InitWFn.InitWFn(),
		c.Activations)
	if err != nil {
		return fmt.Errorf("setup: could not create training network: %v",
			err)
	}

	predictNet, err := trainNet.CloneWithBatch(1)
	if err != nil {
		return fmt.Errorf("setup: could not create prediction network: %v",
			err)
	}
	if err := predictNet.Set(trainNet); err != nil {
		return fmt.Errorf("setup: %v", err)
	}

	m.trainNet = trainNet
	m.predictNet = predictNet
	m.predictVM = G.NewTapeMachine(predictNet.Graph())
	return nil
}

// IsSetup returns whether Setup has been called successfully
func (m *MLP) IsSetup() bool {
	return m.trainNet != nil
}

// Graph returns the training graph
func (m *MLP) Graph() *G.ExprGraph {
	if !m.IsSetup() {
		return nil
	}
	return m.trainNet.Graph()
}

// Prediction returns the output node of the training network
func (m *MLP) Prediction() *G.Node {
	if !m.IsSetup() {
		return nil
	}
	return m.trainNet.Prediction()
}

// BatchSize returns the number of samples fed to Update
func (m *MLP) BatchSize() int {
	return m.config.BatchSize
}

// Features returns the size of a single state vector
func (m *MLP) Features() int {
	return m.config.Features
}

// Outputs returns the number of values predicted for a single state
func (m *MLP) Outputs() int {
	return m.config.Outputs
}

// Learnables returns the weights of the training network
func (m *MLP) Learnables() G.Nodes {
	if !m.IsSetup() {
		return nil
	}
	return m.trainNet.Learnables()
}

// Placeholder adds an input node to the training graph
func (m *MLP) Placeholder(name string, shape ...int) (*G.Node, error) {
	if !m.IsSetup() {
		return nil, fmt.Errorf("placeholder: approximator not set up")
	}
	if m.trainVM != nil {
		return nil, fmt.Errorf("placeholder: cannot add %v after the loss "+
			"has been set", name)
	}
	if name == StateInput {
		return nil, fmt.Errorf("placeholder: %v is reserved", StateInput)
	}
	if _, ok := m.placeholders[name]; ok {
		return nil, fmt.Errorf("placeholder: %v already exists", name)
	}

	opts := []G.NodeConsOpt{
		G.WithShape(shape...),
		G.WithName(name),
		G.WithInit(G.Zeroes()),
	}
	var node *G.Node
	switch len(shape) {
	case 1:
		node = G.NewVector(m.Graph(), tensor.Float64, opts...)
	case 2:
		node = G.NewMatrix(m.Graph(), tensor.Float64, opts...)
	default:
		return nil, fmt.Errorf("placeholder: %v must be a vector or matrix",
			name)
	}

	m.placeholders[name] = node
	return node, nil
}

// Minimize sets the loss that Update descends
func (m *MLP) Minimize(loss *G.Node) error {
	if err := m.checkCanTrain(); err != nil {
		return fmt.Errorf("minimize: %v", err)
	}
	if !loss.IsScalar() {
		return fmt.Errorf("minimize: loss must be a scalar, have shape %v",
			loss.Shape())
	}

	if _, err := G.Grad(loss, m.Learnables()...); err != nil {
		return fmt.Errorf("minimize: could not compute gradient: %v", err)
	}

	m.trainVM = G.NewTapeMachine(m.Graph(),
		G.BindDualValues(m.Learnables()...))
	m.model = G.NodesToValueGrads(m.Learnables())
	return nil
}

// Gradients returns the gradient of signal with respect to each
// learnable
func (m *MLP) Gradients(signal *G.Node) (G.Nodes, error) {
	if err := m.checkCanTrain(); err != nil {
		return nil, fmt.Errorf("gradients: %v", err)
	}
	if !signal.IsScalar() {
		return nil, fmt.Errorf("gradients: signal must be a scalar, have "+
			"shape %v", signal.Shape())
	}

	grads, err := G.Grad(signal, m.Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("gradients: %v", err)
	}
	return grads, nil
}

// ApplyGradients sets the gradients that Update steps along
func (m *MLP) ApplyGradients(grads G.Nodes) error {
	if err := m.checkCanTrain(); err != nil {
		return fmt.Errorf("applyGradients: %v", err)
	}

	learnables := m.Learnables()
	if len(grads) != len(learnables) {
		return fmt.Errorf("applyGradients: invalid number of gradients"+
			"\n\twant(%v)\n\thave(%v)", len(learnables), len(grads))
	}

	model := make([]G.ValueGrad, len(grads))
	for i := range grads {
		if !grads[i].Shape().Eq(learnables[i].Shape()) {
			return fmt.Errorf("applyGradients: gradient %v has shape %v, "+
				"want %v", i, grads[i].Shape(), learnables[i].Shape())
		}
		vg := &valueGrad{node: learnables[i]}
		G.Read(grads[i], &vg.grad)
		model[i] = vg
	}

	m.trainVM = G.NewTapeMachine(m.Graph())
	m.model = model
	return nil
}

// FromGradient sets Update to step along the gradient of signal
func (m *MLP) FromGradient(signal *G.Node) error {
	grads, err := m.Gradients(signal)
	if err != nil {
		return fmt.Errorf("fromGradient: %v", err)
	}
	return m.ApplyGradients(grads)
}

// checkCanTrain returns an error if the training graph can no longer
// accept a loss
func (m *MLP) checkCanTrain() error {
	if !m.IsSetup() {
		return fmt.Errorf("approximator not set up")
	}
	if m.trainVM != nil {
		return fmt.Errorf("loss already set")
	}
	return nil
}

// Update feeds a batch of inputs to the training graph and takes a
// single step of the solver. Every placeholder, as well as StateInput,
// must be present in inputs.
func (m *MLP) Update(ctx context.Context, inputs map[string][]float64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if m.trainVM == nil {
		return fmt.Errorf("update: no loss to minimize")
	}

	state, ok := inputs[StateInput]
	if !ok {
		return fmt.Errorf("update: missing input %v", StateInput)
	}
	if err := m.trainNet.SetInput(state); err != nil {
		return fmt.Errorf("update: %v", err)
	}

	for name, node := range m.placeholders {
		data, ok := inputs[name]
		if !ok {
			return fmt.Errorf("update: missing input %v", name)
		}
		if len(data) != node.Shape().TotalSize() {
			return fmt.Errorf("update: invalid size for %v \n\twant(%v)"+
				"\n\thave(%v)", name, node.Shape().TotalSize(), len(data))
		}
		value := tensor.New(
			tensor.WithShape(node.Shape()...),
			tensor.WithBacking(data),
		)
		if err := G.Let(node, value); err != nil {
			return fmt.Errorf("update: could not set %v: %v", name, err)
		}
	}

	defer m.trainVM.Reset()
	if err := m.trainVM.RunAll(); err != nil {
		return fmt.Errorf("update: could not run training graph: %v", err)
	}
	if err := m.solver.Step(m.model); err != nil {
		return fmt.Errorf("update: could not step solver: %v", err)
	}

	if err := m.predictNet.Set(m.trainNet); err != nil {
		return fmt.Errorf("update: %v", err)
	}
	return nil
}

// Predict returns the outputs of the MLP for a single state
func (m *MLP) Predict(ctx context.Context, state []float64) ([]float64,
	error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if !m.IsSetup() {
		return nil, fmt.Errorf("predict: approximator not set up")
	}

	if err := m.predictNet.SetInput(state); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	defer m.predictVM.Reset()
	if err := m.predictVM.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	out, ok := m.predictNet.Output().Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("predict: unexpected output type %T",
			m.predictNet.Output().Data())
	}
	return append([]float64(nil), out...), nil
}

// CopyObj returns a new MLP of the same architecture named within s
func (m *MLP) CopyObj(s scope.Scope) (Approximator, error) {
	return NewMLP(s, m.config)
}

// MakeCopyOp returns an operation which sets the weights of m to
// the current weights of source
func (m *MLP) MakeCopyOp(ctx context.Context,
	source Approximator) (func() error, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("makeCopyOp: %w", err)
	}
	if !m.IsSetup() || !source.IsSetup() {
		return nil, fmt.Errorf("makeCopyOp: both approximators must be " +
			"set up")
	}

	dest := m.Learnables()
	src := source.Learnables()
	if len(dest) != len(src) {
		return nil, fmt.Errorf("makeCopyOp: invalid number of learnables"+
			"\n\twant(%v)\n\thave(%v)", len(dest), len(src))
	}
	for i := range dest {
		if !dest[i].Shape().Eq(src[i].Shape()) {
			return nil, fmt.Errorf("makeCopyOp: incompatible shapes for "+
				"%v\n\twant(%v)\n\thave(%v)", dest[i].Name(),
				dest[i].Shape(), src[i].Shape())
		}
	}

	return func() error {
		if err := network.CopyLearnables(dest, src); err != nil {
			return fmt.Errorf("copy: %v", err)
		}
		return m.predictNet.Set(m.trainNet)
	}, nil
}

// Save writes the current weights of the MLP to w
func (m *MLP) Save(w io.Writer) error {
	if !m.IsSetup() {
		return fmt.Errorf("save: approximator not set up")
	}

	weights := make([][]float64, 0, len(m.Learnables()))
	for _, node := range m.Learnables() {
		data, ok := node.Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("save: %v has no float64 data", node.Name())
		}
		weights = append(weights, data)
	}

	if err := gob.NewEncoder(w).Encode(weights); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Load sets the weights of the MLP to those previously written by Save
func (m *MLP) Load(r io.Reader) error {
	if !m.IsSetup() {
		return fmt.Errorf("load: approximator not set up")
	}

	var weights [][]float64
	if err := gob.NewDecoder(r).Decode(&weights); err != nil {
		return fmt.Errorf("load: %v", err)
	}

	learnables := m.Learnables()
	if len(weights) != len(learnables) {
		return fmt.Errorf("load: invalid number of learnables\n\twant(%v)"+
			"\n\thave(%v)", len(learnables), len(weights))
	}
	for i, node := range learnables {
		if len(weights[i]) != node.Shape().TotalSize() {
			return fmt.Errorf("load: invalid size for %v\n\twant(%v)"+
				"\n\thave(%v)", node.Name(), node.Shape().TotalSize(),
				len(weights[i]))
		}
	}

	for i, node := range learnables {
		value := tensor.New(
			tensor.WithShape(node.Shape()...),
			tensor.WithBacking(weights[i]),
		)
		if err := G.Let(node, value); err != nil {
			return fmt.Errorf("load: %v", err)
		}
	}
	return m.predictNet.Set(m.trainNet)
}

// valueGrad pairs a learnable with the value of a gradient node read
// while running the training graph
type valueGrad struct {
	node *G.Node
	grad G.Value
}

func (v *valueGrad) Value() G.Value {
	return v.node.Value()
}

func (v *valueGrad) Grad() (G.Value, error) {
	if v.grad == nil {
		return nil, fmt.Errorf("grad: gradient of %v has not been computed",
			v.node.Name())
	}
	return v.grad, nil
}
