package badge

import (
	"fmt"

	"fincheck-controlplane/pkg/celengine"

	"github.com/google/cel-go/cel"
)

var aggregateVars = map[string]*cel.Type{
	"count":               cel.IntType,
	"total_xp":            cel.IntType,
	"streak":              cel.IntType,
	"distinct_categories": cel.IntType,
	"max_score":           cel.IntType,
	"average_score":       cel.DoubleType,
	"perfect_count":       cel.IntType,
	"low_score_count":     cel.IntType,
	"max_score_after_low": cel.IntType,
	"categories":          cel.ListType(cel.StringType),
}

type rule struct {
	badge   Badge
	program *celengine.Program
}

// Evaluator holds the compiled catalogue. It is safe for concurrent use.
type Evaluator struct {
	rules []rule
}

func NewEvaluator() (*Evaluator, error) {
	return NewEvaluatorFor(Catalogue)
}

// NewEvaluatorFor compiles every badge expression up front; any invalid
// expression fails construction.
func NewEvaluatorFor(catalogue []Badge) (*Evaluator, error) {
	env, err := celengine.NewEnv(aggregateVars)
	if err != nil {
		return nil, fmt.Errorf("badge env: %w", err)
	}

	seen := make(map[string]struct{}, len(catalogue))
	rules := make([]rule, 0, len(catalogue))
	for _, b := range catalogue {
		if _, dup := seen[b.ID]; dup {
			return nil, fmt.Errorf("duplicate badge id %q", b.ID)
		}
		seen[b.ID] = struct{}{}

		prg, err := celengine.Compile(env, b.Expression)
		if err != nil {
			return nil, fmt.Errorf("badge %s: %w", b.ID, err)
		}
		rules = append(rules, rule{badge: b, program: prg})
	}

	return &Evaluator{rules: rules}, nil
}

// Evaluate returns the badges whose predicate holds for agg and that are not
// in held, in catalogue order.
func (e *Evaluator) Evaluate(agg Aggregate, held map[string]struct{}) ([]Badge, error) {
	vars := agg.vars()

	earned := make([]Badge, 0)
	for _, r := range e.rules {
		if _, ok := held[r.badge.ID]; ok {
			continue
		}
		ok, err := r.program.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("evaluate badge %s: %w", r.badge.ID, err)
		}
		if ok {
			earned = append(earned, r.badge)
		}
	}
	return earned, nil
}

func (e *Evaluator) Badges() []Badge {
	out := make([]Badge, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r.badge)
	}
	return out
}
