package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action or an observation.
type SpecType int

const (
	Action SpecType = iota
	Observation
)

// Cardinality determines the cardinality of a number (discrete or
// continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action or observation in an environment
type Spec struct {
	Shape      int
	Type       SpecType
	LowerBound *mat.VecDense
	UpperBound *mat.VecDense
	Cardinality
}

// NewSpec constructs a new environment specification. The shape
// argument is the length of the vectors the specification describes.
// For discrete specifications, UpperBound holds the largest value of
// each dimension, so that dimension i takes UpperBound[i]+1 values.
func NewSpec(shape int, t SpecType, lowerBound, upperBound *mat.VecDense,
	cardinality Cardinality) (Spec, error) {
	if shape != lowerBound.Len() {
		return Spec{}, fmt.Errorf("newSpec: shape %v must match lower "+
			"bounds length %v", shape, lowerBound.Len())
	}
	if shape != upperBound.Len() {
		return Spec{}, fmt.Errorf("newSpec: shape %v must match upper "+
			"bounds length %v", shape, upperBound.Len())
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}, nil
}

// Actions returns the number of discrete actions described by a
// one dimensional discrete action Spec
func (s Spec) Actions() (int, error) {
	if s.Cardinality != Discrete || s.Shape != 1 {
		return 0, fmt.Errorf("actions: spec is not a one dimensional " +
			"discrete spec")
	}
	return int(s.UpperBound.AtVec(0)-s.LowerBound.AtVec(0)) + 1, nil
}
