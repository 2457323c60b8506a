package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// SelectorType describes the available methods of sampling data from
// an experience replay buffer
type SelectorType string

const (
	Uniform SelectorType = "Uniform"
	Fifo    SelectorType = "Fifo"
)

// Selector implements functionality for choosing how data should be
// sampled from an experience replay buffer
type Selector interface {
	// choose selects n indices at which data should be sampled from
	// the experience replay buffer
	choose(c *cache, n int) []int
}

// CreateSelector returns a new Selector of the given type
func CreateSelector(t SelectorType, seed uint64) (Selector, error) {
	switch t {
	case Uniform:
		return NewUniformSelector(seed), nil
	case Fifo:
		return NewFifoSelector(), nil
	}
	return nil, fmt.Errorf("createSelector: no such selector type %v", t)
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly, with replacement
type uniformSelector struct {
	rng *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer
func NewUniformSelector(seed uint64) Selector {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSelector{rng: rng}
}

// choose selects a number of indices at which to draw data from the
// buffer
func (u *uniformSelector) choose(c *cache, n int) []int {
	selected := make([]int, n)
	for i := range selected {
		selected[i] = c.index(u.rng.Intn(c.Len()))
	}

	return selected
}

// fifoSelector is a Selector which selects the oldest data in an
// experience replay buffer first. It never removes data; removal is
// always first-in-first-out once the buffer is at capacity.
type fifoSelector struct{}

// NewFifoSelector returns a new Selector which draws data from an
// experience replay buffer oldest first.
func NewFifoSelector() Selector {
	return fifoSelector{}
}

// choose selects a number of indices at which to draw data from the
// buffer
func (f fifoSelector) choose(c *cache, n int) []int {
	if n > c.Len() {
		n = c.Len()
	}

	selected := make([]int, n)
	for i := range selected {
		selected[i] = c.index(i)
	}

	return selected
}
