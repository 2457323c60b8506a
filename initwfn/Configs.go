package initwfn

import G "gorgonia.org/gorgonia"

// GlorotUConfig configures Glorot uniform initialization
type GlorotUConfig struct {
	Gain float64
}

func (g *GlorotUConfig) Type() Type        { return GlorotU }
func (g *GlorotUConfig) Create() G.InitWFn { return G.GlorotU(g.Gain) }

// GlorotNConfig configures Glorot normal initialization
type GlorotNConfig struct {
	Gain float64
}

func (g *GlorotNConfig) Type() Type        { return GlorotN }
func (g *GlorotNConfig) Create() G.InitWFn { return G.GlorotN(g.Gain) }

// HeUConfig configures He uniform initialization
type HeUConfig struct {
	Gain float64
}

func (h *HeUConfig) Type() Type        { return HeU }
func (h *HeUConfig) Create() G.InitWFn { return G.HeU(h.Gain) }

// HeNConfig configures He normal initialization
type HeNConfig struct {
	Gain float64
}

func (h *HeNConfig) Type() Type        { return HeN }
func (h *HeNConfig) Create() G.InitWFn { return G.HeN(h.Gain) }

// ZeroesConfig initializes all weights to 0
type ZeroesConfig struct{}

func (z *ZeroesConfig) Type() Type        { return Zeroes }
func (z *ZeroesConfig) Create() G.InitWFn { return G.Zeroes() }

// OnesConfig initializes all weights to 1
type OnesConfig struct{}

func (o *OnesConfig) Type() Type        { return Ones }
func (o *OnesConfig) Create() G.InitWFn { return G.Ones() }

// ConstantConfig initializes all weights to Value
type ConstantConfig struct {
	Value float64
}

func (c *ConstantConfig) Type() Type        { return Constant }
func (c *ConstantConfig) Create() G.InitWFn { return G.ValuesOf(c.Value) }

// UniformConfig draws weights uniformly from [Low, High)
type UniformConfig struct {
	Low, High float64
}

func (u *UniformConfig) Type() Type        { return Uniform }
func (u *UniformConfig) Create() G.InitWFn { return G.Uniform(u.Low, u.High) }

// GaussianConfig draws weights from a normal distribution
type GaussianConfig struct {
	Mean, StdDev float64
}

func (g *GaussianConfig) Type() Type { return Gaussian }

func (g *GaussianConfig) Create() G.InitWFn {
	return G.Gaussian(g.Mean, g.StdDev)
}
