//go:build js_eval

package tagloader

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEngine compiles rule predicates as goja programs.
type jsEngine struct{}

// NewJSEngine constructs a RuleEngine backed by goja.
func NewJSEngine() RuleEngine {
	return jsEngine{}
}

func (jsEngine) Name() string {
	return "js"
}

func (e jsEngine) Compile(expression string) (Predicate, error) {
	if expression == "" {
		return nil, wrapRuleError(e.Name(), "", fmt.Errorf("expression must not be empty"))
	}
	program, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	if err != nil {
		return nil, wrapRuleError(e.Name(), expression, err)
	}
	return &jsPredicate{program: program, expression: expression}, nil
}

type jsPredicate struct {
	program    *goja.Program
	expression string
}

func (p *jsPredicate) Match(facts Facts) (bool, error) {
	vm := goja.New()
	for key, value := range facts.environment() {
		if err := vm.Set(key, value); err != nil {
			return false, wrapRuleError("js", p.expression, err)
		}
	}
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return false, wrapRuleError("js", p.expression, err)
	}
	matched, ok := value.Export().(bool)
	if !ok {
		return false, wrapRuleError("js", p.expression, fmt.Errorf("expected bool, got %T", value.Export()))
	}
	return matched, nil
}

func jsEngineAvailable() bool {
	return true
}
