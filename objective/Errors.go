package objective

import "errors"

// Error records a failed objective operation
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrNotSetup is returned when an objective is used before Setup
	ErrNotSetup = errors.New("objective not set up")

	// ErrAlreadySetup is returned when Setup is called more than once
	ErrAlreadySetup = errors.New("objective already set up")

	// ErrApproximatorNotSetup is returned by Setup if the approximator
	// has not been set up
	ErrApproximatorNotSetup = errors.New("approximator not set up")

	// ErrInvalidTransition is wrapped by errors for transitions which
	// do not fit the replay buffer
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidConfig is wrapped by all configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsConfigError returns whether err was caused by an invalid
// configuration
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
