package objective

import (
	"context"
	"fmt"
	"sync"

	"github.com/samuelfneumann/advantage/approximator"
	"github.com/samuelfneumann/advantage/expreplay"
	"github.com/samuelfneumann/advantage/scope"
	"gonum.org/v1/gonum/mat"
)

// DecoupledValueGradient is a ValueGradient objective which bootstraps
// from a target approximator. The target has the architecture of the
// trained approximator and its parameters change only when Sync copies
// the trained parameters into it.
//
// Sync is called every syncPeriod calls to Optimize which updated the
// approximator. Only those calls count as improvement steps.
type DecoupledValueGradient struct {
	*ValueGradient

	target      approximator.Approximator
	targetSetup bool
	syncPeriod  int

	// mu guards the target's parameters between Sync and bootstrap
	// predictions
	mu     sync.Mutex
	copyOp func() error

	optimizationCalls int
}

// NewDecoupledValueGradient returns a new DecoupledValueGradient. The
// target approximator is copied from fn into a child scope of s.
func NewDecoupledValueGradient(s scope.Scope,
	replay expreplay.ExperienceReplayer, fn approximator.Approximator,
	discount float64, iterations, steps,
	syncPeriod int) (*DecoupledValueGradient, error) {
	if syncPeriod < 1 {
		return nil, &Error{Op: "newDecoupledValueGradient", Err: fmt.Errorf(
			"%w: sync period must be positive, have %v", ErrInvalidConfig,
			syncPeriod)}
	}
	if fn == nil {
		return nil, &Error{Op: "newDecoupledValueGradient", Err: fmt.Errorf(
			"%w: nil approximator", ErrInvalidConfig)}
	}

	target, err := fn.CopyObj(s.Child("target", fn.Scope().String()))
	if err != nil {
		return nil, &Error{Op: "newDecoupledValueGradient", Err: err}
	}

	d := &DecoupledValueGradient{
		target:     target,
		syncPeriod: syncPeriod,
	}
	targetBootstrap := BootstrapFrom(target)
	bootstrap := func(nextState *mat.VecDense) (float64, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		return targetBootstrap(nextState)
	}

	v, err := NewValueGradient(s, replay, fn, discount, iterations, steps,
		bootstrap)
	if err != nil {
		return nil, err
	}
	d.ValueGradient = v
	return d, nil
}

// Target returns the target approximator
func (d *DecoupledValueGradient) Target() approximator.Approximator {
	return d.target
}

// SyncPeriod returns the number of improving Optimize calls between
// calls to Sync
func (d *DecoupledValueGradient) SyncPeriod() int {
	return d.syncPeriod
}

// OptimizationCalls returns the number of Optimize calls which updated
// the approximator
func (d *DecoupledValueGradient) OptimizationCalls() int {
	return d.optimizationCalls
}

// Setup sets up the target approximator, syncs it to the trained
// approximator, then builds the ValueGradient loss. The objective is
// set up only if every step succeeds, and a failed Setup may be
// retried.
func (d *DecoupledValueGradient) Setup(ctx context.Context) error {
	if err := d.checkSetup(ctx); err != nil {
		return err
	}

	if !d.targetSetup {
		if err := d.target.Setup(ctx); err != nil {
			return &Error{Op: "setup", Err: fmt.Errorf("target: %v", err)}
		}
		d.targetSetup = true
	}
	copyOp, err := d.target.MakeCopyOp(ctx, d.fn)
	if err != nil {
		return &Error{Op: "setup", Err: fmt.Errorf("target: %v", err)}
	}
	d.mu.Lock()
	d.copyOp = copyOp
	d.mu.Unlock()
	if err := d.Sync(); err != nil {
		return err
	}

	if err := d.buildLoss(); err != nil {
		return err
	}
	d.isSetup = true
	return nil
}

// Sync sets the parameters of the target approximator equal to the
// current parameters of the trained approximator
func (d *DecoupledValueGradient) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.copyOp == nil {
		return &Error{Op: "sync", Err: ErrNotSetup}
	}
	if err := d.copyOp(); err != nil {
		return &Error{Op: "sync", Err: err}
	}
	return nil
}

// Optimize performs the ValueGradient update. Every syncPeriod-th
// call which updates the approximator syncs the target, and the other
// updating calls do not count as improvement steps.
func (d *DecoupledValueGradient) Optimize(ctx context.Context,
	batchSize int) error {
	updated, err := d.optimize(ctx, batchSize, d.feed)
	if err != nil || !updated {
		return err
	}

	d.optimizationCalls++
	if d.optimizationCalls%d.syncPeriod == 0 {
		return d.Sync()
	}
	d.improvementSteps--
	return nil
}
