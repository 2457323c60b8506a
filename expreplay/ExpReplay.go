// Package expreplay implements experience replay buffers which store
// completed transitions and sample batches of them for optimization
package expreplay

import (
	"fmt"

	ts "github.com/samuelfneumann/advantage/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	SampleMethod      SelectorType
	MaxReplayCapacity int
	MinReplayCapacity int
}

// Validate returns an error if the Config cannot create an
// ExperienceReplayer
func (c Config) Validate() error {
	if c.MinReplayCapacity <= 0 {
		return fmt.Errorf("validate: minCapacity must be > 0")
	}
	if c.MaxReplayCapacity < c.MinReplayCapacity {
		return fmt.Errorf("validate: maxCapacity (%v) must be >= "+
			"minCapacity (%v)", c.MaxReplayCapacity, c.MinReplayCapacity)
	}
	return nil
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(element Element, featureSize, actionSize int,
	seed uint64) (ExperienceReplayer, error) {
	sampler, err := CreateSelector(c.SampleMethod, seed)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	return New(element, sampler, c.MinReplayCapacity, c.MaxReplayCapacity,
		featureSize, actionSize)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Push adds one or more transitions to the buffer. Either all
	// transitions are added or none are.
	Push(t ...ts.Transition) error

	// Sample samples a batch of count transitions from the buffer.
	// Sampling zero transitions returns an empty Batch.
	Sample(count int) (Batch, error)

	// SampleBatches samples iterations batches of batchSize transitions.
	// If the buffer cannot be sampled yet, no batches are returned.
	SampleBatches(batchSize, iterations int) ([]Batch, error)

	// Len returns the current number of samples in the buffer
	Len() int

	// Clear removes all samples from the buffer
	Clear()

	// Element returns the strategy used to convert environment
	// dictionaries into transitions stored in this buffer
	Element() Element

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// FeatureSize returns the length of the state vectors stored
	FeatureSize() int

	// ActionSize returns the length of the action vectors stored
	ActionSize() int
}

// cache implements a concrete ExperienceReplayer. Data is stored in
// flat ring buffers, and once the cache is at maximum capacity the
// oldest transition is overwritten.
type cache struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	nextStateCache []float64
	doneCache      []float64
	returnCache    []float64

	// head is the index that the next transition will be written to
	head int
	size int

	sampler Selector
	element Element

	minCapacity int
	maxCapacity int
	featureSize int
	actionSize  int
}

// New creates and returns a new ExperienceReplayer. The sampler
// parameter determines how data is sampled. The featureSize and
// actionSize parameters define the size of the feature and action
// vectors. The element parameter converts environment dictionaries
// into the transitions that the buffer stores.
//
// Pixel observations should be flattened before adding to the buffer.
func New(element Element, sampler Selector, minCapacity, maxCapacity,
	featureSize, actionSize int) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < minCapacity {
		return nil, fmt.Errorf("new: maxCapacity (%v) must be >= "+
			"minCapacity (%v)", maxCapacity, minCapacity)
	}
	if featureSize < 1 || actionSize < 1 {
		return nil, fmt.Errorf("new: feature size (%v) and action size "+
			"(%v) must be positive", featureSize, actionSize)
	}
	if element == nil {
		element = VectorElement{}
	}

	return &cache{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]float64, maxCapacity*actionSize),
		rewardCache:    make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),
		doneCache:      make([]float64, maxCapacity),
		returnCache:    make([]float64, maxCapacity),

		sampler: sampler,
		element: element,

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// index returns the position in the cache of the i-th oldest transition
func (c *cache) index(i int) int {
	return (c.head - c.size + i + c.maxCapacity) % c.maxCapacity
}

// String returns the string representation of the cache
func (c *cache) String() string {
	baseStr := "Size: %v \nStates: %v \nActions: %v \nRewards: %v " +
		"\nNext States: %v \nDone: %v \nN-Step Returns: %v"
	return fmt.Sprintf(baseStr, c.size, c.stateCache, c.actionCache,
		c.rewardCache, c.nextStateCache, c.doneCache, c.returnCache)
}

// Element returns the strategy used to create the cache's transitions
func (c *cache) Element() Element {
	return c.element
}

// Len returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Len() int {
	return c.size
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// cache before sampling is allowed
func (c *cache) MinCapacity() int {
	return c.minCapacity
}

// FeatureSize returns the length of the cached state vectors
func (c *cache) FeatureSize() int {
	return c.featureSize
}

// ActionSize returns the length of the cached action vectors
func (c *cache) ActionSize() int {
	return c.actionSize
}

// Clear removes all elements from the cache
func (c *cache) Clear() {
	c.head = 0
	c.size = 0
}

// Push adds transitions to the cache
func (c *cache) Push(transitions ...ts.Transition) error {
	for _, t := range transitions {
		if err := t.Validate(); err != nil {
			return &ExpReplayError{Op: "push", Err: err}
		}
		if t.State.Len() != c.featureSize {
			return fmt.Errorf("push: invalid feature size \n\twant(%v)"+
				"\n\thave(%v)", c.featureSize, t.State.Len())
		}
		if t.NextState.Len() != c.featureSize {
			return fmt.Errorf("push: invalid next state size \n\twant(%v)"+
				"\n\thave(%v)", c.featureSize, t.NextState.Len())
		}
		if t.Action.Len() != c.actionSize {
			return fmt.Errorf("push: invalid action size \n\twant(%v)"+
				"\n\thave(%v)", c.actionSize, t.Action.Len())
		}
	}

	for _, t := range transitions {
		c.add(t)
	}
	return nil
}

// add writes a single validated transition at the head of the cache
func (c *cache) add(t ts.Transition) {
	index := c.head

	stateInd := index * c.featureSize
	copy(c.stateCache[stateInd:stateInd+c.featureSize], t.State.RawVector().Data)
	copy(c.nextStateCache[stateInd:stateInd+c.featureSize],
		t.NextState.RawVector().Data)

	actionInd := index * c.actionSize
	copy(c.actionCache[actionInd:actionInd+c.actionSize],
		t.Action.RawVector().Data)

	c.rewardCache[index] = t.Reward
	c.returnCache[index] = t.NStepReturn
	if t.Done {
		c.doneCache[index] = 1.0
	} else {
		c.doneCache[index] = 0.0
	}

	c.head = (c.head + 1) % c.maxCapacity
	if c.size < c.maxCapacity {
		c.size++
	}
}

// Sample samples and returns a batch of transitions from the replay
// buffer
func (c *cache) Sample(count int) (Batch, error) {
	if count <= 0 {
		return newBatch(0, c.featureSize, c.actionSize), nil
	}
	if c.Len() == 0 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if c.Len() < c.MinCapacity() {
		return Batch{}, &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
	}

	indices := c.sampler.choose(c, count)
	batch := newBatch(len(indices), c.featureSize, c.actionSize)

	for i, index := range indices {
		batchStartInd := i * c.featureSize
		expStartInd := index * c.featureSize
		copy(batch.State[batchStartInd:batchStartInd+c.featureSize],
			c.stateCache[expStartInd:expStartInd+c.featureSize],
		)
		copy(batch.NextState[batchStartInd:batchStartInd+c.featureSize],
			c.nextStateCache[expStartInd:expStartInd+c.featureSize],
		)

		batchStartInd = i * c.actionSize
		expStartInd = index * c.actionSize
		copy(batch.Action[batchStartInd:batchStartInd+c.actionSize],
			c.actionCache[expStartInd:expStartInd+c.actionSize],
		)

		batch.Reward[i] = c.rewardCache[index]
		batch.Done[i] = c.doneCache[index]
		batch.NStepReturn[i] = c.returnCache[index]
	}

	return batch, nil
}

// SampleBatches samples iterations batches of batchSize transitions.
// If the cache is empty or has not yet reached its minimum capacity,
// no batches are returned and the error is nil.
func (c *cache) SampleBatches(batchSize, iterations int) ([]Batch, error) {
	if batchSize <= 0 || iterations <= 0 {
		return nil, nil
	}

	batches := make([]Batch, 0, iterations)
	for i := 0; i < iterations; i++ {
		batch, err := c.Sample(batchSize)
		if IsEmptyBuffer(err) || IsInsufficientSamples(err) {
			return nil, nil
		} else if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}
