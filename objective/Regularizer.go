package objective

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Regularizer adds a scalar term to an objective's loss, computed from
// the learnables of the approximator being trained
type Regularizer func(learnables G.Nodes) (*G.Node, error)

// L2 returns a Regularizer which penalizes the sum of squared weights,
// scaled by scale
func L2(scale float64) Regularizer {
	return func(learnables G.Nodes) (*G.Node, error) {
		if len(learnables) == 0 {
			return nil, fmt.Errorf("l2: no learnables to regularize")
		}

		var total *G.Node
		for _, l := range learnables {
			sq, err := G.Sum(G.Must(G.Square(l)))
			if err != nil {
				return nil, fmt.Errorf("l2: %v", err)
			}
			if total == nil {
				total = sq
			} else {
				total = G.Must(G.Add(total, sq))
			}
		}
		return G.Mul(G.NewConstant(scale), total)
	}
}
