package main

import (
	"fmt"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// lmGraph is one compiled copy of the window model. The training copy
// carries gradient nodes; evaluation and generation copies share the
// training weights by value.
type lmGraph struct {
	g      *gorgonia.ExprGraph
	x      *gorgonia.Node // multi-hot context, [rows, context*vocab]
	y      *gorgonia.Node // one-hot targets, [rows, vocab]
	norm   *gorgonia.Node // number of real (unpadded) rows
	w1, w2 *gorgonia.Node
	probs  *gorgonia.Node
	cost   *gorgonia.Node
	vm     gorgonia.VM
}

// newLMGraph builds the graph. w1 and w2 are bound as initial weights when
// given, otherwise they are Glorot initialized.
func newLMGraph(rows, in, hidden, vocab int, w1, w2 gorgonia.Value, withGrad bool) (*lmGraph, error) {
	g := gorgonia.NewGraph()
	lg := &lmGraph{g: g}

	lg.x = gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(rows, in), gorgonia.WithName("x"))
	lg.y = gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(rows, vocab), gorgonia.WithName("y"))
	lg.norm = gorgonia.NewScalar(g, tensor.Float64, gorgonia.WithName("norm"))
	lg.w1 = newWeight(g, "w1", in, hidden, w1)
	lg.w2 = newWeight(g, "w2", hidden, vocab, w2)

	if err := lg.forward(); err != nil {
		return nil, err
	}

	if withGrad {
		if _, err := gorgonia.Grad(lg.cost, lg.w1, lg.w2); err != nil {
			return nil, fmt.Errorf("building gradients: %w", err)
		}
		lg.vm = gorgonia.NewTapeMachine(g, gorgonia.BindDualValues(lg.w1, lg.w2))
	} else {
		lg.vm = gorgonia.NewTapeMachine(g)
	}
	return lg, nil
}

func newWeight(g *gorgonia.ExprGraph, name string, rows, cols int, v gorgonia.Value) *gorgonia.Node {
	opts := []gorgonia.NodeConsOpt{gorgonia.WithShape(rows, cols), gorgonia.WithName(name)}
	if v != nil {
		opts = append(opts, gorgonia.WithValue(v))
	} else {
		opts = append(opts, gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	}
	return gorgonia.NewMatrix(g, tensor.Float64, opts...)
}

func (lg *lmGraph) forward() error {
	// Hidden layer: relu(x * W1)
	xw1, err := gorgonia.Mul(lg.x, lg.w1)
	if err != nil {
		return fmt.Errorf("hidden projection: %w", err)
	}
	h, err := gorgonia.Rectify(xw1)
	if err != nil {
		return fmt.Errorf("relu: %w", err)
	}

	// Output layer: h * W2
	logits, err := gorgonia.Mul(h, lg.w2)
	if err != nil {
		return fmt.Errorf("output projection: %w", err)
	}
	if lg.probs, err = gorgonia.SoftMax(logits); err != nil {
		return fmt.Errorf("softmax: %w", err)
	}

	// Cross entropy summed over real rows, divided by their count.
	eps := gorgonia.NewConstant(1e-12)
	logp, err := gorgonia.Log(gorgonia.Must(gorgonia.Add(lg.probs, eps)))
	if err != nil {
		return fmt.Errorf("log probs: %w", err)
	}
	picked, err := gorgonia.HadamardProd(logp, lg.y)
	if err != nil {
		return fmt.Errorf("pick targets: %w", err)
	}
	total, err := gorgonia.Sum(picked)
	if err != nil {
		return fmt.Errorf("sum: %w", err)
	}
	if lg.cost, err = gorgonia.Div(gorgonia.Must(gorgonia.Neg(total)), lg.norm); err != nil {
		return fmt.Errorf("normalize loss: %w", err)
	}
	return nil
}

// bindWeights points the graph at the current training weights.
func (lg *lmGraph) bindWeights(w1, w2 gorgonia.Value) error {
	if err := gorgonia.Let(lg.w1, w1); err != nil {
		return fmt.Errorf("binding w1: %w", err)
	}
	if err := gorgonia.Let(lg.w2, w2); err != nil {
		return fmt.Errorf("binding w2: %w", err)
	}
	return nil
}

// run feeds one set of inputs and returns the loss. A zero count skips
// the run since there is nothing to score.
func (lg *lmGraph) run(x, y *tensor.Dense, count int) (float64, error) {
	if err := gorgonia.Let(lg.x, x); err != nil {
		return 0, fmt.Errorf("setting input failed: %w", err)
	}
	if err := gorgonia.Let(lg.y, y); err != nil {
		return 0, fmt.Errorf("setting target failed: %w", err)
	}
	if err := gorgonia.Let(lg.norm, float64(count)); err != nil {
		return 0, fmt.Errorf("setting norm failed: %w", err)
	}

	lg.vm.Reset()
	if err := lg.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("vm.RunAll failed: %w", err)
	}

	v := lg.cost.Value()
	if v == nil {
		return 0, fmt.Errorf("cost value is nil")
	}
	loss, ok := v.Data().(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected cost type %T", v.Data())
	}
	return loss, nil
}

func (lg *lmGraph) close() {
	if lg.vm != nil {
		lg.vm.Close()
	}
}
