package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

func TestUnmarshalJSON(t *testing.T) {
	data := []byte(`{"Type": "Adam", "Config": {"StepSize": 0.01,
		"Epsilon": 1e-8, "Beta1": 0.9, "Beta2": 0.999, "Batch": 1}}`)

	var s Solver
	require.NoError(t, json.Unmarshal(data, &s))
	require.Equal(t, Adam, s.Type)
	require.IsType(t, &G.AdamSolver{}, s.Solver)
	require.Equal(t, 0.01, s.Config.(*AdamConfig).StepSize)
}

func TestUnmarshalJSONInvalid(t *testing.T) {
	var s Solver
	err := json.Unmarshal([]byte(`{"Type": "Vanilla", "Config": `+
		`{"StepSize": -1, "Batch": 1}}`), &s)
	require.Error(t, err)

	err = json.Unmarshal([]byte(`{"Type": "Momentum", "Config": {}}`), &s)
	require.Error(t, err)
}

func TestClone(t *testing.T) {
	s, err := NewVanilla(0.1, 1, -1)
	require.NoError(t, err)

	clone, err := s.Clone()
	require.NoError(t, err)
	require.Equal(t, s.Config, clone.Config)
	require.NotSame(t, s.Solver, clone.Solver)
}

func TestRMSPropCreatesRMSProp(t *testing.T) {
	s, err := New(&RMSPropConfig{StepSize: 0.1, Rho: 0.9, Batch: 1, Clip: 5})
	require.NoError(t, err)
	require.IsType(t, &G.RMSPropSolver{}, s.Solver)
}
