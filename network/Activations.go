package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

type activationType string

const (
	relu     activationType = "relu"
	identity activationType = "identity"
	tanh     activationType = "tanh"
	sigmoid  activationType = "sigmoid"
	nil_     activationType = "nil"
)

// activations maps the name of each activation to its node function
var activations = map[activationType]func(*G.Node) (*G.Node, error){
	relu:     G.Rectify,
	identity: func(x *G.Node) (*G.Node, error) { return x, nil },
	tanh:     G.Tanh,
	sigmoid:  G.Sigmoid,
	nil_:     nil,
}

// Activation is an element-wise function applied to the output of a
// layer. Activations are named in JSON configuration files by their
// String() value.
type Activation struct {
	activationType
	f func(x *G.Node) (*G.Node, error)
}

func newActivation(t activationType) *Activation {
	return &Activation{activationType: t, f: activations[t]}
}

// Nil returns an Activation which leaves a layer without an activation
func Nil() *Activation { return newActivation(nil_) }

// Identity returns an identity *Activation
func Identity() *Activation { return newActivation(identity) }

// ReLU returns a ReLU *Activation
func ReLU() *Activation { return newActivation(relu) }

// TanH returns a tanh *Activation
func TanH() *Activation { return newActivation(tanh) }

// Sigmoid returns a logistic sigmoid *Activation
func Sigmoid() *Activation { return newActivation(sigmoid) }

// fwd applies the Activation to x. Nil activations return x.
func (a *Activation) fwd(x *G.Node) (*G.Node, error) {
	if a.IsNil() {
		return x, nil
	}
	return a.f(x)
}

// IsNil returns whether an activation is nil
func (a *Activation) IsNil() bool {
	return a.activationType == nil_ || a.f == nil
}

func (a *Activation) String() string {
	return string(a.activationType)
}

// MarshalText implements the encoding.TextMarshaler interface
func (a *Activation) MarshalText() ([]byte, error) {
	return []byte(a.activationType), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (a *Activation) UnmarshalText(text []byte) error {
	t := activationType(text)
	if _, ok := activations[t]; !ok {
		return fmt.Errorf("unmarshalText: illegal activation %q", text)
	}
	*a = *newActivation(t)
	return nil
}
