package checkpointer

import (
	"fmt"
	"os"
)

// nStep implements checkpointing every N improvement steps
type nStep struct {
	interval int
	object   Serializable // Object to save
	last     int

	// filename returns the string filename of the file to save the object
	// in.
	//
	// If each serialized object should be saved in a separate file with
	// each file having an incremented number as a suffix (e.g.
	// file1.bin, file2.bin, ..., fileK.bin), then simply use the
	// static function FilenameEnumerator, which will return a function
	// that will enumerate filenames.
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints every n improvement
// steps.
func NewNStep(n int, object Serializable,
	filename func() string) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: interval must be positive, "+
			"have %v", n)
	}
	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the Checkpointer's tracked object if improvementSteps
// is a positive multiple of the interval. Each multiple is saved at
// most once.
func (n *nStep) Checkpoint(improvementSteps int) error {
	if improvementSteps < 1 || improvementSteps%n.interval != 0 ||
		improvementSteps == n.last {
		return nil
	}

	file, err := os.Create(n.filename())
	if err != nil {
		return fmt.Errorf("checkpoint: %v", err)
	}
	defer file.Close()

	if err := n.object.Save(file); err != nil {
		return fmt.Errorf("checkpoint: %v", err)
	}
	n.last = improvementSteps
	return nil
}
