package objective

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/advantage/approximator"
	"github.com/samuelfneumann/advantage/scope"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fakeApproximator builds a linear graph so that objectives can
// construct their losses, but never runs it. It records every call
// that objectives make.
type fakeApproximator struct {
	scope                    scope.Scope
	features, outputs, batch int

	g            *G.ExprGraph
	input        *G.Node
	weights      *G.Node
	prediction   *G.Node
	placeholders map[string]*G.Node

	loss         *G.Node
	grads        G.Nodes
	fromGradient bool

	updates     []map[string][]float64
	predictions [][]float64
	value       []float64

	copies  []*fakeApproximator
	copyOps int
	copyErr error
}

func newFake(s scope.Scope, features, outputs, batch int) *fakeApproximator {
	value := make([]float64, outputs)
	return &fakeApproximator{
		scope:        s,
		features:     features,
		outputs:      outputs,
		batch:        batch,
		placeholders: make(map[string]*G.Node),
		value:        value,
	}
}

func newSetupFake(s scope.Scope, features, outputs,
	batch int) *fakeApproximator {
	f := newFake(s, features, outputs, batch)
	if err := f.Setup(context.Background()); err != nil {
		panic(err)
	}
	return f
}

func (f *fakeApproximator) Scope() scope.Scope { return f.scope }
func (f *fakeApproximator) IsSetup() bool      { return f.g != nil }
func (f *fakeApproximator) BatchSize() int     { return f.batch }
func (f *fakeApproximator) Features() int      { return f.features }
func (f *fakeApproximator) Outputs() int       { return f.outputs }

func (f *fakeApproximator) Setup(ctx context.Context) error {
	if f.IsSetup() {
		return fmt.Errorf("setup: already set up")
	}
	f.g = G.NewGraph()
	f.input = G.NewMatrix(f.g, tensor.Float64,
		G.WithShape(f.batch, f.features), G.WithName(f.scope.Name("input")),
		G.WithInit(G.Zeroes()))
	f.weights = G.NewMatrix(f.g, tensor.Float64,
		G.WithShape(f.features, f.outputs),
		G.WithName(f.scope.Name("weights")), G.WithInit(G.Ones()))
	f.prediction = G.Must(G.Mul(f.input, f.weights))
	return nil
}

func (f *fakeApproximator) Graph() *G.ExprGraph { return f.g }
func (f *fakeApproximator) Prediction() *G.Node { return f.prediction }
func (f *fakeApproximator) Learnables() G.Nodes { return G.Nodes{f.weights} }

func (f *fakeApproximator) Placeholder(name string,
	shape ...int) (*G.Node, error) {
	if _, ok := f.placeholders[name]; ok {
		return nil, fmt.Errorf("placeholder: %v already exists", name)
	}
	var node *G.Node
	if len(shape) == 1 {
		node = G.NewVector(f.g, tensor.Float64, G.WithShape(shape...),
			G.WithName(name))
	} else {
		node = G.NewMatrix(f.g, tensor.Float64, G.WithShape(shape...),
			G.WithName(name))
	}
	f.placeholders[name] = node
	return node, nil
}

func (f *fakeApproximator) Minimize(loss *G.Node) error {
	if !loss.IsScalar() {
		return fmt.Errorf("minimize: loss is not a scalar")
	}
	f.loss = loss
	return nil
}

func (f *fakeApproximator) Gradients(signal *G.Node) (G.Nodes, error) {
	return G.Grad(signal, f.Learnables()...)
}

func (f *fakeApproximator) ApplyGradients(grads G.Nodes) error {
	f.grads = grads
	return nil
}

func (f *fakeApproximator) FromGradient(signal *G.Node) error {
	grads, err := f.Gradients(signal)
	if err != nil {
		return err
	}
	f.fromGradient = true
	return f.ApplyGradients(grads)
}

func (f *fakeApproximator) Update(ctx context.Context,
	inputs map[string][]float64) error {
	if f.loss == nil && f.grads == nil {
		return fmt.Errorf("update: no loss")
	}
	record := make(map[string][]float64, len(inputs))
	for name, data := range inputs {
		record[name] = append([]float64(nil), data...)
	}
	f.updates = append(f.updates, record)
	return nil
}

func (f *fakeApproximator) Predict(ctx context.Context,
	state []float64) ([]float64, error) {
	f.predictions = append(f.predictions, append([]float64(nil), state...))
	return append([]float64(nil), f.value...), nil
}

func (f *fakeApproximator) CopyObj(s scope.Scope) (approximator.Approximator,
	error) {
	c := newFake(s, f.features, f.outputs, f.batch)
	f.copies = append(f.copies, c)
	return c, nil
}

func (f *fakeApproximator) MakeCopyOp(ctx context.Context,
	source approximator.Approximator) (func() error, error) {
	src, ok := source.(*fakeApproximator)
	if !ok || !f.IsSetup() || !src.IsSetup() {
		return nil, fmt.Errorf("makeCopyOp: cannot copy %T", source)
	}
	if f.copyErr != nil {
		return nil, f.copyErr
	}
	return func() error {
		f.copyOps++
		f.value = append([]float64(nil), src.value...)
		return nil
	}, nil
}
