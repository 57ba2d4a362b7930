package snapshot

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"kardex/internal/core/apperror"
)

// RuleSet holds operator-registered warning rules as CEL expressions.
// Each rule is evaluated per stock record with these variables:
//
//	quantity      double  on-hand quantity
//	lockQuantity  double  reserved quantity
//	available     double  quantity - lockQuantity
//	safetyStock   double  threshold from master data
//	daysToExpiry  int     days until batch expiry (large when no expiry set)
//	batchNo       string  batch number
//
// An expression must evaluate to bool. Invalid expressions are rejected
// at registration, so evaluation never sees an uncompiled rule.
type RuleSet struct {
	mu    sync.RWMutex
	env   *cel.Env
	rules map[string]cel.Program
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() (*RuleSet, error) {
	env, err := cel.NewEnv(
		cel.Variable("quantity", cel.DoubleType),
		cel.Variable("lockQuantity", cel.DoubleType),
		cel.Variable("available", cel.DoubleType),
		cel.Variable("safetyStock", cel.DoubleType),
		cel.Variable("daysToExpiry", cel.IntType),
		cel.Variable("batchNo", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}
	return &RuleSet{
		env:   env,
		rules: make(map[string]cel.Program),
	}, nil
}

// Register compiles and stores a rule. Replaces an existing rule with the
// same name.
func (rs *RuleSet) Register(name, expression string) error {
	if name == "" {
		return apperror.NewValidation("rule name is required")
	}

	ast, issues := rs.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return apperror.NewValidation("invalid rule expression").
			WithDetail("rule", name).
			WithDetail("error", issues.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return apperror.NewValidation("rule expression must evaluate to bool").
			WithDetail("rule", name).
			WithDetail("type", ast.OutputType().String())
	}

	prg, err := rs.env.Program(ast)
	if err != nil {
		return apperror.NewValidation("rule expression cannot be planned").
			WithDetail("rule", name).
			WithDetail("error", err.Error())
	}

	rs.mu.Lock()
	rs.rules[name] = prg
	rs.mu.Unlock()
	return nil
}

// Unregister removes a rule. Removing an unknown rule is a no-op.
func (rs *RuleSet) Unregister(name string) {
	rs.mu.Lock()
	delete(rs.rules, name)
	rs.mu.Unlock()
}

// Names returns the registered rule names.
func (rs *RuleSet) Names() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	names := make([]string, 0, len(rs.rules))
	for name := range rs.rules {
		names = append(names, name)
	}
	return names
}

// Evaluate runs every rule against one record's variables and returns the
// names of rules that fired. A rule that errors at runtime is skipped and
// reported; it never blocks the built-in warnings.
func (rs *RuleSet) Evaluate(vars map[string]any) (fired []string, errs []error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	for name, prg := range rs.rules {
		out, _, err := prg.Eval(vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", name, err))
			continue
		}
		if hit, ok := out.Value().(bool); ok && hit {
			fired = append(fired, name)
		}
	}
	return fired, errs
}
