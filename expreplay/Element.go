package expreplay

import (
	"fmt"

	ts "github.com/samuelfneumann/advantage/timestep"
	"gonum.org/v1/gonum/mat"
)

// Keys of an environment dictionary
const (
	KeyState     = "state"
	KeyAction    = "action"
	KeyReward    = "reward"
	KeyNextState = "next_state"
	KeyDone      = "done"
)

// Element converts the dictionary describing one environment step into
// the Transition that is stored in an experience replay buffer.
//
// The dictionary must have at least the keys KeyState, KeyAction,
// KeyReward, KeyNextState, and KeyDone. Vector values may be
// []float64, mat.Vector, float64, or int; scalars become vectors of
// length 1. Rewards may be float64 or int, and KeyDone must be a bool.
type Element interface {
	MakeElement(env map[string]interface{}) (ts.Transition, error)
}

// VectorElement stores actions as given
type VectorElement struct{}

// MakeElement implements the Element interface
func (VectorElement) MakeElement(env map[string]interface{}) (ts.Transition,
	error) {
	state, err := vectorField(env, KeyState)
	if err != nil {
		return ts.Transition{}, err
	}
	action, err := vectorField(env, KeyAction)
	if err != nil {
		return ts.Transition{}, err
	}
	reward, err := scalarField(env, KeyReward)
	if err != nil {
		return ts.Transition{}, err
	}
	nextState, err := vectorField(env, KeyNextState)
	if err != nil {
		return ts.Transition{}, err
	}
	done, err := boolField(env, KeyDone)
	if err != nil {
		return ts.Transition{}, err
	}

	t := ts.NewTransition(state, action, reward, nextState, done)
	if err := t.Validate(); err != nil {
		return ts.Transition{}, fmt.Errorf("makeElement: %v", err)
	}
	return t, nil
}

// OneHotElement stores discrete actions, enumerated from 0, as one-hot
// vectors of length Actions. This is the layout action-value
// objectives need to select the value of the action taken.
type OneHotElement struct {
	Actions int
}

// MakeElement implements the Element interface
func (o OneHotElement) MakeElement(env map[string]interface{}) (ts.Transition,
	error) {
	t, err := VectorElement{}.MakeElement(env)
	if err != nil {
		return ts.Transition{}, err
	}

	if t.Action.Len() != 1 {
		return ts.Transition{}, fmt.Errorf("makeElement: discrete actions "+
			"must be 1-dimensional \n\thave(%v)", t.Action.Len())
	}
	a := int(t.Action.AtVec(0))
	if a < 0 || a >= o.Actions {
		return ts.Transition{}, fmt.Errorf("makeElement: action %v out of "+
			"range [0, %v)", a, o.Actions)
	}

	oneHot := mat.NewVecDense(o.Actions, nil)
	oneHot.SetVec(a, 1.0)
	t.Action = oneHot

	return t, nil
}

// vectorField extracts a vector from an environment dictionary
func vectorField(env map[string]interface{}, key string) (*mat.VecDense,
	error) {
	value, ok := env[key]
	if !ok || value == nil {
		return nil, fmt.Errorf("makeElement: %v: %w", key, ErrMissingField)
	}

	switch v := value.(type) {
	case []float64:
		data := make([]float64, len(v))
		copy(data, v)
		return mat.NewVecDense(len(data), data), nil

	case mat.Vector:
		return mat.VecDenseCopyOf(v), nil

	case float64:
		return mat.NewVecDense(1, []float64{v}), nil

	case int:
		return mat.NewVecDense(1, []float64{float64(v)}), nil
	}

	return nil, fmt.Errorf("makeElement: %v of type %T: %w", key, value,
		ErrFieldType)
}

// scalarField extracts a float64 from an environment dictionary
func scalarField(env map[string]interface{}, key string) (float64, error) {
	value, ok := env[key]
	if !ok || value == nil {
		return 0, fmt.Errorf("makeElement: %v: %w", key, ErrMissingField)
	}

	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}

	return 0, fmt.Errorf("makeElement: %v of type %T: %w", key, value,
		ErrFieldType)
}

// boolField extracts a bool from an environment dictionary
func boolField(env map[string]interface{}, key string) (bool, error) {
	value, ok := env[key]
	if !ok || value == nil {
		return false, fmt.Errorf("makeElement: %v: %w", key, ErrMissingField)
	}

	done, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("makeElement: %v of type %T: %w", key,
			value, ErrFieldType)
	}
	return done, nil
}
