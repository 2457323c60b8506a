package expreplay

// Batch is a batch of transitions sampled from an experience replay
// buffer. Vector data is flattened in row major order, so that the
// state of sample i is State[i*StateDim : (i+1)*StateDim].
//
// A Batch with Size 0 is a valid, empty batch.
type Batch struct {
	Size      int
	StateDim  int
	ActionDim int

	State       []float64
	Action      []float64
	Reward      []float64
	NextState   []float64
	Done        []float64 // 1.0 if the transition ended an episode
	NStepReturn []float64
}

// newBatch returns a zeroed Batch which can hold size samples
func newBatch(size, stateDim, actionDim int) Batch {
	return Batch{
		Size:        size,
		StateDim:    stateDim,
		ActionDim:   actionDim,
		State:       make([]float64, size*stateDim),
		Action:      make([]float64, size*actionDim),
		Reward:      make([]float64, size),
		NextState:   make([]float64, size*stateDim),
		Done:        make([]float64, size),
		NStepReturn: make([]float64, size),
	}
}

// Empty returns whether the Batch has no samples
func (b Batch) Empty() bool {
	return b.Size == 0
}
