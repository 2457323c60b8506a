// Package nstep implements a fixed-capacity buffer of transitions that
// are waiting for their n-step returns to be completed
package nstep

import (
	"fmt"

	ts "github.com/samuelfneumann/advantage/timestep"
)

// Buffer holds at most Steps() transitions from one uninterrupted
// segment of an episode, oldest first. Each time a new reward arrives,
// Fold integrates it into the n-step return of every waiting transition.
//
// The Buffer does not decide when it should be flushed; that is up to
// its owner. A full Buffer refuses further pushes until it is cleared.
type Buffer struct {
	steps       int
	discount    float64
	transitions []ts.Transition
}

// New returns a new Buffer for n-step returns with n = steps and
// discount factor ℽ = discount
func New(steps int, discount float64) (*Buffer, error) {
	if steps < 1 {
		return nil, fmt.Errorf("new: steps must be positive \n\twant(>0)"+
			"\n\thave(%v)", steps)
	}
	if discount <= 0 || discount > 1 {
		return nil, fmt.Errorf("new: discount must be in (0, 1] "+
			"\n\thave(%v)", discount)
	}

	return &Buffer{
		steps:       steps,
		discount:    discount,
		transitions: make([]ts.Transition, 0, steps),
	}, nil
}

// Steps returns the maximum number of transitions the Buffer can hold
func (b *Buffer) Steps() int {
	return b.steps
}

// Discount returns the discount factor used when folding rewards
func (b *Buffer) Discount() float64 {
	return b.discount
}

// Len returns the number of transitions currently in the Buffer
func (b *Buffer) Len() int {
	return len(b.transitions)
}

// Full returns whether the Buffer holds Steps() transitions
func (b *Buffer) Full() bool {
	return len(b.transitions) == b.steps
}

// Push appends a transition to the Buffer
func (b *Buffer) Push(t ts.Transition) error {
	if b.Full() {
		return fmt.Errorf("push: buffer full with %v transitions", b.steps)
	}
	b.transitions = append(b.transitions, t)
	return nil
}

// Sample returns a copy of the oldest min(k, Len()) transitions in
// the Buffer, oldest first. The Buffer is left unchanged.
func (b *Buffer) Sample(k int) []ts.Transition {
	if k > len(b.transitions) {
		k = len(b.transitions)
	}
	if k <= 0 {
		return []ts.Transition{}
	}

	out := make([]ts.Transition, k)
	copy(out, b.transitions[:k])
	return out
}

// Clear empties the Buffer
func (b *Buffer) Clear() {
	b.transitions = b.transitions[:0]
}

// Fold integrates a reward r observed one step after the newest
// transition into the n-step return of each transition in the Buffer.
// Given L transitions, the transition at position j (0 is the oldest)
// receives ℽ^(L-j) * r, so the newest transition is discounted once and
// the oldest L times. Folding into an empty Buffer does nothing.
//
// A bootstrap estimate of the value of the newest transition's next
// state is folded in exactly the same way.
func (b *Buffer) Fold(r float64) {
	factor := b.discount
	for j := len(b.transitions) - 1; j >= 0; j-- {
		b.transitions[j].NStepReturn += factor * r
		factor *= b.discount
	}
}

// Folded returns a copy of all transitions in the Buffer, oldest
// first, with r folded into their returns as Fold would. The Buffer is
// left unchanged.
func (b *Buffer) Folded(r float64) []ts.Transition {
	out := b.Sample(len(b.transitions))
	factor := b.discount
	for j := len(out) - 1; j >= 0; j-- {
		out[j].NStepReturn += factor * r
		factor *= b.discount
	}
	return out
}

// Newest returns the most recently pushed transition
func (b *Buffer) Newest() (ts.Transition, bool) {
	if len(b.transitions) == 0 {
		return ts.Transition{}, false
	}
	return b.transitions[len(b.transitions)-1], true
}
