package tagloader

import "fmt"

// Rule maps a predicate over the cookie facts to a loader kind and target.
// Rules are evaluated in order; the first match wins.
type Rule struct {
	Name   string     `json:"name" yaml:"name"`
	When   string     `json:"when" yaml:"when"`
	Kind   LoaderKind `json:"kind" yaml:"kind"`
	Target Target     `json:"target" yaml:"target"`
}

// DefaultRules is the five-way tag-type table. Any other value, including an
// absent cookie, falls through to DefaultVariant.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "gtm-1p-server", When: tagTypeIs("gtm-1p-server"), Kind: ContainerLoader, Target: TargetFirstPartyServer},
		{Name: "gtm-1p-cdn", When: tagTypeIs("gtm-1p-cdn"), Kind: ContainerLoader, Target: TargetFirstPartyCDN},
		{Name: "gtag-1p-server", When: tagTypeIs("gtag-1p-server"), Kind: TagLoader, Target: TargetFirstPartyServer},
		{Name: "gtag-1p-cdn", When: tagTypeIs("gtag-1p-cdn"), Kind: TagLoader, Target: TargetFirstPartyCDN},
		{Name: "gtag", When: tagTypeIs("gtag"), Kind: TagLoader, Target: TargetVendor},
	}
}

// The quoting is valid in expr, CEL and JavaScript alike.
func tagTypeIs(value string) string {
	return fmt.Sprintf("tag_type == %q", value)
}

type compiledRule struct {
	Rule
	predicate Predicate
}

func compileRules(engine RuleEngine, rules []Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		if rule.Name == "" {
			rule.Name = fmt.Sprintf("rule[%d]", i)
		}
		predicate, err := engine.Compile(rule.When)
		if err != nil {
			return nil, withRuleName(wrapRuleError(engine.Name(), rule.When, err), rule.Name)
		}
		compiled = append(compiled, compiledRule{Rule: rule, predicate: predicate})
	}
	return compiled, nil
}
