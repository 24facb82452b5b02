package tagloader

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
)

// celEngine compiles rule predicates with cel-go. Cookie lookups on missing
// keys are errors in CEL; guard them with `"name" in cookies`.
type celEngine struct {
	env *celgo.Env
}

// NewCELEngine constructs a RuleEngine backed by cel-go.
func NewCELEngine() (RuleEngine, error) {
	env, err := celgo.NewEnv(
		celgo.Variable("tag_type", celgo.StringType),
		celgo.Variable("cookies", celgo.MapType(celgo.StringType, celgo.StringType)),
	)
	if err != nil {
		return nil, wrapRuleError("cel", "", err)
	}
	return &celEngine{env: env}, nil
}

func (e *celEngine) Name() string {
	return "cel"
}

func (e *celEngine) Compile(expression string) (Predicate, error) {
	if expression == "" {
		return nil, wrapRuleError(e.Name(), "", fmt.Errorf("expression must not be empty"))
	}
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapRuleError(e.Name(), expression, issues.Err())
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, wrapRuleError(e.Name(), expression, err)
	}
	return &celPredicate{program: program, expression: expression}, nil
}

type celPredicate struct {
	program    celgo.Program
	expression string
}

func (p *celPredicate) Match(facts Facts) (bool, error) {
	out, _, err := p.program.Eval(map[string]any{
		"tag_type": facts.TagType,
		"cookies":  facts.Cookies.stringMap(),
	})
	if err != nil {
		return false, wrapRuleError("cel", p.expression, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, wrapRuleError("cel", p.expression, fmt.Errorf("expected bool, got %T", out.Value()))
	}
	return matched, nil
}
