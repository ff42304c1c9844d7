package symforms

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ============================================================
// Strategy orchestrator
// ============================================================

// pipelineStep is one rewrite applied inside a strategy round. Steps
// are pure; a step that panics is degraded to a no-op for that round.
type pipelineStep struct {
	name  string
	apply func(Expr) Expr
}

var (
	stepCanonicalize  = pipelineStep{name: "canonicalize", apply: Canonicalize}
	stepFoldConstants = pipelineStep{name: "fold-constants", apply: foldConstants}
	stepDropZero      = pipelineStep{name: "drop-zero-terms", apply: dropZeroTerms}
	stepDropUnit      = pipelineStep{name: "drop-unit-factors", apply: dropUnitFactors}
	stepTrig          = pipelineStep{name: "trig-simplify", apply: TrigSimplify}
	stepTrivialPowers = pipelineStep{name: "simplify-powers", apply: simplifyTrivialPowers}
)

// GenerateMultipleForms runs every form-generation strategy over the
// input and returns the deduplicated candidate list. Failures degrade:
// a failing step falls back to its pre-step value, and a failure of
// the whole run yields the unmodified input as a single structural
// form.
func GenerateMultipleForms(e Expr) []Form {
	forms, _ := GenerateMultipleFormsVerbose(e)
	return forms
}

// GenerateMultipleFormsVerbose additionally reports the accumulated
// non-fatal step failures that were degraded along the way. The error
// is diagnostic only; the form list is always usable.
func GenerateMultipleFormsVerbose(e Expr) (forms []Form, diag error) {
	defer func() {
		if r := recover(); r != nil {
			forms = []Form{{Expr: e, Kind: FormStructural, Label: "original form"}}
			diag = multierror.Append(diag, errors.Errorf("form generation failed: %v", r))
		}
	}()

	var collected []Form
	seen := map[string]bool{}
	emit := func(f Form) {
		key := f.Expr.String()
		if seen[key] {
			return
		}
		seen[key] = true
		collected = append(collected, f)
	}

	run := func(strategy func(Expr) (Form, error)) {
		f, err := strategy(e)
		if err != nil {
			diag = multierror.Append(diag, err)
		}
		if f.Expr != nil {
			emit(f)
		}
	}

	run(strategyExpand)
	run(strategyExpandTrig)
	run(strategyFactor)
	run(strategyFractionReduce)
	run(strategyFull)

	if len(collected) < 3 {
		run(strategyReducedTrig)
		run(strategyReducedCleanup)
	}
	if len(collected) == 0 {
		collected = []Form{{Expr: e, Kind: FormStructural, Label: "original form"}}
	}
	return collected, diag
}

// runPipeline iterates the steps to a fixed point, at most
// maxSimplifyRounds rounds, structural convergence. Each step is
// guarded: on panic the pre-step value is kept and the failure is
// accumulated.
func runPipeline(e Expr, steps []pipelineStep) (Expr, error) {
	var diag error
	curr := e
	for round := 0; round < maxSimplifyRounds; round++ {
		next := curr
		for _, step := range steps {
			out, err := safeStep(step, next)
			if err != nil {
				diag = multierror.Append(diag, err)
				continue
			}
			next = out
		}
		if next.Equal(curr) {
			break
		}
		curr = next
	}
	return curr, diag
}

func safeStep(step pipelineStep, e Expr) (out Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = e
			err = errors.Errorf("step %s: %v", step.name, r)
		}
	}()
	out = step.apply(e)
	if out == nil {
		out = e
		err = errors.Errorf("step %s: returned no result", step.name)
	}
	return out, err
}

// ============================================================
// Strategies
// ============================================================

func strategyExpand(e Expr) (Form, error) {
	out, err := runPipeline(e, []pipelineStep{
		stepCanonicalize, stepFoldConstants, stepDropZero, stepDropUnit, stepTrivialPowers,
	})
	return Form{Expr: out, Kind: FormExpanded, Label: "expanded form"}, wrapStrategyErr("expand", err)
}

func strategyExpandTrig(e Expr) (Form, error) {
	out, err := runPipeline(e, []pipelineStep{
		stepCanonicalize, stepFoldConstants, stepDropZero, stepDropUnit, stepTrig, stepTrivialPowers,
	})
	return Form{Expr: out, Kind: FormGrouped, Label: "trigonometrically simplified"}, wrapStrategyErr("expand-trig", err)
}

func strategyFactor(e Expr) (Form, error) {
	base, err := runPipeline(e, []pipelineStep{stepCanonicalize, stepTrig})
	candidates := GenerateAllForms(base)
	for _, f := range candidates {
		if f.Kind == FormFactored {
			return Form{Expr: f.Expr, Kind: FormFactored, Label: "factored form"}, wrapStrategyErr("factor", err)
		}
	}
	return Form{Expr: base, Kind: FormFactored, Label: "factored form"}, wrapStrategyErr("factor", err)
}

func strategyFractionReduce(e Expr) (Form, error) {
	base, err := runPipeline(e, []pipelineStep{stepCanonicalize, stepTrig})
	candidates := GenerateAllForms(base)
	for _, f := range candidates {
		if f.Label == labelFractionReduced {
			return Form{Expr: f.Expr, Kind: FormGrouped, Label: labelFractionReduced}, wrapStrategyErr("fraction-reduce", err)
		}
	}
	last := candidates[len(candidates)-1]
	return Form{Expr: last.Expr, Kind: FormGrouped, Label: labelFractionReduced}, wrapStrategyErr("fraction-reduce", err)
}

func strategyFull(e Expr) (Form, error) {
	out, err := runPipeline(e, []pipelineStep{
		stepCanonicalize, stepFoldConstants, stepDropZero, stepDropUnit, stepTrig, stepTrivialPowers,
	})
	return Form{Expr: out, Kind: FormStructural, Label: "fully simplified"}, wrapStrategyErr("full", err)
}

func strategyReducedTrig(e Expr) (Form, error) {
	out, err := runPipeline(e, []pipelineStep{stepCanonicalize, stepFoldConstants, stepTrig})
	return Form{Expr: out, Kind: FormGrouped, Label: "partially simplified"}, wrapStrategyErr("reduced-trig", err)
}

func strategyReducedCleanup(e Expr) (Form, error) {
	out, err := runPipeline(e, []pipelineStep{stepCanonicalize, stepDropZero, stepDropUnit})
	return Form{Expr: out, Kind: FormStructural, Label: "cleaned up"}, wrapStrategyErr("reduced-cleanup", err)
}

func wrapStrategyErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, fmt.Sprintf("strategy %s", name))
}

// ============================================================
// Pipeline steps
// ============================================================

// foldConstants collapses binary operations over two Numbers. A
// division by a near-zero denominator and non-finite power results
// are left alone.
func foldConstants(e Expr) Expr {
	return rewriteBottomUp(e, func(node Expr) Expr {
		b, ok := node.(*BinaryOp)
		if !ok {
			return node
		}
		l, lok := numberValue(b.Left)
		r, rok := numberValue(b.Right)
		if !lok || !rok {
			return node
		}
		switch b.Op {
		case OpAdd:
			return Num(l + r)
		case OpSubtract:
			return Num(l - r)
		case OpMultiply:
			return Num(l * r)
		case OpDivide:
			if approxZero(r) {
				return node
			}
			return Num(l / r)
		case OpPower:
			if v := math.Pow(l, r); !math.IsNaN(v) && !math.IsInf(v, 0) {
				return Num(v)
			}
		}
		return node
	})
}

// dropZeroTerms removes zero-valued addends: x+0 → x, x−0 → x,
// 0−x → (−1)·x.
func dropZeroTerms(e Expr) Expr {
	return rewriteBottomUp(e, func(node Expr) Expr {
		b, ok := node.(*BinaryOp)
		if !ok {
			return node
		}
		switch b.Op {
		case OpAdd:
			if isNumberEqual(b.Left, 0) {
				return b.Right
			}
			if isNumberEqual(b.Right, 0) {
				return b.Left
			}
		case OpSubtract:
			if isNumberEqual(b.Right, 0) {
				return b.Left
			}
			if isNumberEqual(b.Left, 0) {
				return Mul(Num(-1), b.Right)
			}
		}
		return node
	})
}

// dropUnitFactors removes unit multiplicative factors: 1·x → x,
// x·1 → x, x/1 → x.
func dropUnitFactors(e Expr) Expr {
	return rewriteBottomUp(e, func(node Expr) Expr {
		b, ok := node.(*BinaryOp)
		if !ok {
			return node
		}
		switch b.Op {
		case OpMultiply:
			if isNumberEqual(b.Left, 1) {
				return b.Right
			}
			if isNumberEqual(b.Right, 1) {
				return b.Left
			}
		case OpDivide:
			if isNumberEqual(b.Right, 1) {
				return b.Left
			}
		}
		return node
	})
}

// simplifyTrivialPowers rewrites x^0 → 1 and x^1 → x.
func simplifyTrivialPowers(e Expr) Expr {
	return rewriteBottomUp(e, func(node Expr) Expr {
		b, ok := node.(*BinaryOp)
		if !ok || b.Op != OpPower {
			return node
		}
		if isNumberEqual(b.Right, 0) {
			return Num(1)
		}
		if isNumberEqual(b.Right, 1) {
			return b.Left
		}
		return node
	})
}
