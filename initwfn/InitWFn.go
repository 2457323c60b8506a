// Package initwfn wraps Gorgonia weight initializers so that they can
// be described in JSON configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes the kinds of weight initializer available
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
	Uniform  Type = "Uniform"
	Gaussian Type = "Gaussian"
)

// configFor returns a pointer to the zero Config of type t, into which
// a JSON configuration can be decoded
func configFor(t Type) (Config, error) {
	switch t {
	case GlorotU:
		return &GlorotUConfig{}, nil
	case GlorotN:
		return &GlorotNConfig{}, nil
	case HeU:
		return &HeUConfig{}, nil
	case HeN:
		return &HeNConfig{}, nil
	case Zeroes:
		return &ZeroesConfig{}, nil
	case Ones:
		return &OnesConfig{}, nil
	case Constant:
		return &ConstantConfig{}, nil
	case Uniform:
		return &UniformConfig{}, nil
	case Gaussian:
		return &GaussianConfig{}, nil
	}
	return nil, fmt.Errorf("no such weight initializer %q", t)
}

// Config describes a Gorgonia InitWFn
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of InitWFn the Config creates
	Type() Type
}

// InitWFn wraps a Gorgonia InitWFn together with the Config that
// created it, so that it can be JSON marshalled and unmarshalled.
//
// The JSON form is {"Type": "HeU", "Config": {"Gain": 1.4}}.
type InitWFn struct {
	initWFn G.InitWFn
	Type    Type
	Config  Config
}

// New returns a new InitWFn described by c
func New(c Config) *InitWFn {
	return &InitWFn{initWFn: c.Create(), Type: c.Type(), Config: c}
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
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
	if len(raw.Config) > 0 && string(raw.Config) != "null" {
		if err := json.Unmarshal(raw.Config, config); err != nil {
			return fmt.Errorf("unmarshalJSON: could not decode %v "+
				"config: %v", raw.Type, err)
		}
	}

	*i = *New(config)
	return nil
}
