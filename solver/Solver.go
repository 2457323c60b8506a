// Package solver wraps Gorgonia Solvers so that they can be described
// in JSON configuration files.
package solver

import (
	"encoding/json"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes the kinds of Solver available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// Config describes a Gorgonia Solver
type Config interface {
	// Create returns the Gorgonia Solver that the Config describes
	Create() G.Solver

	// Type returns the type of Solver the Config creates
	Type() Type

	// Validate returns an error if the Config does not describe a
	// valid Solver
	Validate() error
}

func configFor(t Type) (Config, error) {
	switch t {
	case Adam:
		return &AdamConfig{}, nil
	case Vanilla:
		return &VanillaConfig{}, nil
	case RMSProp:
		return &RMSPropConfig{}, nil
	}
	return nil, fmt.Errorf("no such solver %q", t)
}

// Solver wraps a Gorgonia Solver together with the Config that created
// it, so that it can be JSON marshalled and unmarshalled.
//
// The JSON form is {"Type": "Adam", "Config": {"StepSize": 0.001, ...}}.
type Solver struct {
	G.Solver `json:"-"`
	Type     Type
	Config   Config
}

// New returns a new Solver described by c
func New(c Config) (*Solver, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return &Solver{Solver: c.Create(), Type: c.Type(), Config: c}, nil
}

// Clone returns a new Solver with the same Config but fresh internal
// state. Solvers with momentum must not be shared between graphs.
func (s *Solver) Clone() (*Solver, error) {
	return New(s.Config)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	config, err := configFor(raw.Type)
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}
	if err := json.Unmarshal(raw.Config, config); err != nil {
		return fmt.Errorf("unmarshalJSON: could not decode %v config: %v",
			raw.Type, err)
	}

	solver, err := New(config)
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}
	*s = *solver
	return nil
}
