package tagloader

import (
	"errors"
	"fmt"
	"strings"
)

// RuleError captures the engine and expression behind a rule failure.
type RuleError struct {
	Engine string
	Rule   string
	Expr   string
	Err    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Rule != "" {
		return fmt.Sprintf("tagloader: %s rule %q %s: %v", e.Engine, e.Rule, describeExpression(e.Expr), e.Err)
	}
	return fmt.Sprintf("tagloader: %s rule %s: %v", e.Engine, describeExpression(e.Expr), e.Err)
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

// wrapRuleError attaches metadata, filling blanks on an existing RuleError
// rather than nesting a second one.
func wrapRuleError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		if ruleErr.Engine == "" {
			ruleErr.Engine = engine
		}
		if ruleErr.Expr == "" {
			ruleErr.Expr = expr
		}
		return ruleErr
	}
	return &RuleError{Engine: engine, Expr: expr, Err: err}
}

func withRuleName(err error, name string) error {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) && ruleErr.Rule == "" {
		ruleErr.Rule = name
	}
	return err
}

// InjectionError reports a failure inside the page environment while
// injecting a loader. Injection never panics; a panicking environment is
// surfaced through this type instead.
type InjectionError struct {
	Kind LoaderKind
	Err  error
}

func (e *InjectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Err.Error()
	if strings.HasPrefix(msg, "tagloader:") {
		return msg
	}
	return fmt.Sprintf("tagloader: inject %s: %s", e.Kind, msg)
}

func (e *InjectionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
