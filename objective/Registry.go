package objective

import (
	"fmt"
	"sync"

	"github.com/samuelfneumann/advantage/approximator"
	"github.com/samuelfneumann/advantage/expreplay"
	"github.com/samuelfneumann/advantage/scope"
)

// Type identifies a kind of Objective
type Type string

// Available objective types
const (
	ValueGradientType          Type = "ValueGradient"
	DecoupledValueGradientType Type = "DecoupledValueGradient"
	PolicyGradientType         Type = "PolicyGradient"
)

// Config describes an Objective. Fields which do not apply to Type are
// ignored.
type Config struct {
	Type       Type
	Scope      string
	Iterations int

	// Value-gradient objectives
	Discount   float64
	Steps      int
	SyncPeriod int

	// Policy-gradient objectives
	FromGradient bool
}

// Validate returns an error if the Config cannot create an Objective
func (c Config) Validate() error {
	if !Registered(c.Type) {
		return fmt.Errorf("validate: %w: unknown objective type %q",
			ErrInvalidConfig, c.Type)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("validate: %w: iterations must be positive",
			ErrInvalidConfig)
	}

	switch c.Type {
	case ValueGradientType, DecoupledValueGradientType:
		if c.Discount <= 0 || c.Discount > 1 {
			return fmt.Errorf("validate: %w: discount must be in (0, 1]",
				ErrInvalidConfig)
		}
		if c.Steps < 1 {
			return fmt.Errorf("validate: %w: steps must be positive",
				ErrInvalidConfig)
		}
	}
	if c.Type == DecoupledValueGradientType && c.SyncPeriod < 1 {
		return fmt.Errorf("validate: %w: sync period must be positive",
			ErrInvalidConfig)
	}
	return nil
}

// Dependencies holds the collaborators an Objective is constructed
// with
type Dependencies struct {
	Replay       expreplay.ExperienceReplayer
	Approximator approximator.Approximator

	// Bootstrap is used by ValueGradient objectives. If nil, the
	// approximator itself bootstraps.
	Bootstrap BootstrapFunc

	// PolicyReturn is required by PolicyGradient objectives
	PolicyReturn ReturnBuilder
}

// Constructor creates an Objective from a validated Config
type Constructor func(Config, Dependencies) (Objective, error)

var (
	registryMu sync.RWMutex
	registry   = map[Type]Constructor{
		ValueGradientType:          newValueGradientFromConfig,
		DecoupledValueGradientType: newDecoupledFromConfig,
		PolicyGradientType:         newPolicyGradientFromConfig,
	}
)

// Register makes an Objective constructor available to New under the
// type t
func Register(t Type, c Constructor) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if c == nil {
		return fmt.Errorf("register: nil constructor for %v", t)
	}
	if _, ok := registry[t]; ok {
		return fmt.Errorf("register: objective type %v already registered",
			t)
	}
	registry[t] = c
	return nil
}

// Registered returns whether an Objective type has been registered
func Registered(t Type) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()

	_, ok := registry[t]
	return ok
}

// New returns the Objective described by c
func New(c Config, deps Dependencies) (Objective, error) {
	if err := c.Validate(); err != nil {
		return nil, &Error{Op: "new", Err: err}
	}

	registryMu.RLock()
	constructor := registry[c.Type]
	registryMu.RUnlock()

	return constructor(c, deps)
}

func newValueGradientFromConfig(c Config, d Dependencies) (Objective,
	error) {
	bootstrap := d.Bootstrap
	if bootstrap == nil && d.Approximator != nil {
		bootstrap = BootstrapFrom(d.Approximator)
	}
	v, err := NewValueGradient(scope.Parse(c.Scope), d.Replay,
		d.Approximator, c.Discount, c.Iterations, c.Steps, bootstrap)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func newDecoupledFromConfig(c Config, d Dependencies) (Objective, error) {
	v, err := NewDecoupledValueGradient(scope.Parse(c.Scope), d.Replay,
		d.Approximator, c.Discount, c.Iterations, c.Steps, c.SyncPeriod)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func newPolicyGradientFromConfig(c Config, d Dependencies) (Objective,
	error) {
	p, err := NewPolicyGradient(scope.Parse(c.Scope), d.Replay,
		d.Approximator, d.PolicyReturn, c.Iterations, c.FromGradient)
	if err != nil {
		return nil, err
	}
	return p, nil
}
