// Package checkpointer implements Checkpointers, which periodically
// save the parameters of approximators during an experiment
package checkpointer

import "io"

// Serializable is an object that can be saved/serialized
type Serializable interface {
	Save(w io.Writer) error
}

// Checkpointer checkpoints/saves serializable objects based on the
// number of improvement steps an objective has taken
type Checkpointer interface {
	Checkpoint(improvementSteps int) error
}
