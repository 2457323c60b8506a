package objective

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/samuelfneumann/advantage/scope"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfig(t *testing.T) {
	for _, c := range []Config{
		{Type: ValueGradientType, Scope: "vg", Iterations: 1,
			Discount: 0.99, Steps: 3},
		{Type: DecoupledValueGradientType, Scope: "dvg", Iterations: 1,
			Discount: 0.99, Steps: 3, SyncPeriod: 10},
		{Type: PolicyGradientType, Scope: "pg", Iterations: 2},
	} {
		fn := newSetupFake(scope.New("fn"), features, 1, 1)
		o, err := New(c, Dependencies{
			Replay:       newReplay(t),
			Approximator: fn,
			PolicyReturn: logProbReturn,
		})
		require.NoError(t, err, "type %v", c.Type)
		require.NoError(t, o.Setup(context.Background()))

		switch c.Type {
		case ValueGradientType:
			require.IsType(t, &ValueGradient{}, o)
		case DecoupledValueGradientType:
			require.IsType(t, &DecoupledValueGradient{}, o)
			require.Equal(t, 10, o.(*DecoupledValueGradient).SyncPeriod())
		case PolicyGradientType:
			require.IsType(t, &PolicyGradient{}, o)
		}
		_, ok := o.(EpisodeEnder)
		require.True(t, ok)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	deps := Dependencies{
		Replay:       newReplay(t),
		Approximator: newFake(scope.New("fn"), features, 1, 1),
	}

	for _, c := range []Config{
		{Type: "QLearning", Iterations: 1},
		{Type: ValueGradientType, Iterations: 1, Discount: 0, Steps: 1},
		{Type: ValueGradientType, Iterations: 1, Discount: 0.5, Steps: 0},
		{Type: DecoupledValueGradientType, Iterations: 1, Discount: 0.5,
			Steps: 1},
		{Type: PolicyGradientType, Iterations: 0},
	} {
		_, err := New(c, deps)
		require.True(t, IsConfigError(err), "config %+v", c)
	}

	// PolicyGradient requires a policy return
	_, err := New(Config{Type: PolicyGradientType, Iterations: 1}, deps)
	require.True(t, IsConfigError(err))
}

func TestRegister(t *testing.T) {
	require.Error(t, Register(ValueGradientType,
		newValueGradientFromConfig))
	require.Error(t, Register("Nil", nil))

	custom := Type("SingleStepValueGradient")
	require.False(t, Registered(custom))
	require.NoError(t, Register(custom, func(c Config,
		d Dependencies) (Objective, error) {
		c.Type = ValueGradientType
		c.Steps = 1
		return New(c, d)
	}))
	require.True(t, Registered(custom))

	o, err := New(Config{Type: custom, Iterations: 1, Discount: 0.9,
		Steps: 1}, Dependencies{
		Replay:       newReplay(t),
		Approximator: newFake(scope.New("fn"), features, 1, 1),
	})
	require.NoError(t, err)
	require.Equal(t, 1, o.(*ValueGradient).Steps())
}

func TestConfigJSON(t *testing.T) {
	data := []byte(`{"Type": "DecoupledValueGradient", "Scope": "agent",
		"Iterations": 1, "Discount": 0.9, "Steps": 4, "SyncPeriod": 100}`)

	var c Config
	require.NoError(t, json.Unmarshal(data, &c))
	require.NoError(t, c.Validate())
	require.Equal(t, DecoupledValueGradientType, c.Type)
	require.Equal(t, 100, c.SyncPeriod)
}
