package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single environment step: the state the agent was in,
// the action it took, the reward it received, the state it ended up in,
// and whether that state was terminal.
//
// NStepReturn starts equal to Reward. While a Transition waits in an
// n-step buffer, the discounted rewards of later transitions (and
// possibly a bootstrap estimate) are folded into it.
type Transition struct {
	State       *mat.VecDense
	Action      *mat.VecDense
	Reward      float64
	NextState   *mat.VecDense
	Done        bool
	NStepReturn float64
}

// NewTransition returns a new Transition whose n-step return is its
// own reward
func NewTransition(state, action *mat.VecDense, reward float64,
	nextState *mat.VecDense, done bool) Transition {
	return Transition{
		State:       state,
		Action:      action,
		Reward:      reward,
		NextState:   nextState,
		Done:        done,
		NStepReturn: reward,
	}
}

// Validate returns an error if the Transition is missing a state,
// action, or next state, or if its state and next state differ in size
func (t Transition) Validate() error {
	if t.State == nil {
		return fmt.Errorf("validate: transition has no state")
	}
	if t.Action == nil {
		return fmt.Errorf("validate: transition has no action")
	}
	if t.NextState == nil {
		return fmt.Errorf("validate: transition has no next state")
	}
	if t.State.Len() != t.NextState.Len() {
		return fmt.Errorf("validate: state and next state sizes differ"+
			"\n\tstate(%v)\n\tnext state(%v)", t.State.Len(),
			t.NextState.Len())
	}
	return nil
}

func (t Transition) String() string {
	str := "Transition | Reward: %.2f  |  Done: %v  |  N-Step Return: %.4f"

	return fmt.Sprintf(str, t.Reward, t.Done, t.NStepReturn)
}
