package tagloader

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEngine compiles rule predicates with github.com/expr-lang/expr.
type exprEngine struct{}

// NewExprEngine constructs the default RuleEngine.
func NewExprEngine() RuleEngine {
	return exprEngine{}
}

func (exprEngine) Name() string {
	return "expr"
}

func (e exprEngine) Compile(expression string) (Predicate, error) {
	if expression == "" {
		return nil, wrapRuleError(e.Name(), "", fmt.Errorf("expression must not be empty"))
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(Facts{}.environment()),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, wrapRuleError(e.Name(), expression, err)
	}
	return &exprPredicate{program: program, expression: expression}, nil
}

type exprPredicate struct {
	program    *exprvm.Program
	expression string
}

func (p *exprPredicate) Match(facts Facts) (bool, error) {
	out, err := exprlang.Run(p.program, facts.environment())
	if err != nil {
		return false, wrapRuleError("expr", p.expression, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, wrapRuleError("expr", p.expression, fmt.Errorf("expected bool, got %T", out))
	}
	return matched, nil
}
