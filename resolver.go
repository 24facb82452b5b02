package tagloader

import "fmt"

// Resolver maps a cookie snapshot to a ResolvedVariant. Resolution is a pure
// function of the snapshot and the configuration and never fails: every
// unmatched, erroring or unconfigured case yields DefaultVariant.
type Resolver struct {
	cfg    Config
	engine string
	rules  []compiledRule
	logger Logger
}

// NewResolver compiles the rule table. Compilation errors are returned here
// so that Resolve itself cannot fail.
func NewResolver(cfg Config, opts ...Option) (*Resolver, error) {
	options := applyOptions(opts)
	rules, err := compileRules(options.engine, options.rules)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		cfg:    cfg.WithDefaults(),
		engine: options.engine.Name(),
		rules:  rules,
		logger: options.logger,
	}, nil
}

// Engine names the rule engine in use.
func (r *Resolver) Engine() string {
	return r.engine
}

// Facts extracts the rule inputs from cookies.
func (r *Resolver) Facts(cookies Cookies) Facts {
	return Facts{
		TagType: cookies.Value(r.cfg.CookieName),
		Cookies: cookies,
	}
}

// Resolve picks the variant for cookies.
func (r *Resolver) Resolve(cookies Cookies) ResolvedVariant {
	facts := r.Facts(cookies)
	for _, rule := range r.rules {
		matched, err := rule.predicate.Match(facts)
		if err != nil {
			err = withRuleName(wrapRuleError(r.engine, rule.When, err), rule.Name)
			r.logger.Log(LogEvent{Stage: "rule", TagType: facts.TagType, Err: err})
			continue
		}
		if !matched {
			continue
		}
		domain, ok := r.cfg.domainFor(rule.Target)
		if !ok {
			r.logger.Log(LogEvent{
				Stage:   "resolve",
				TagType: facts.TagType,
				Err:     fmt.Errorf("rule %q targets %s which is not configured", rule.Name, rule.Target),
			})
			return DefaultVariant()
		}
		return ResolvedVariant{
			Kind:         rule.Kind,
			ScriptDomain: domain,
			FirstParty:   rule.Target != TargetVendor,
		}
	}
	return DefaultVariant()
}

// ResolveRaw is Resolve over a raw cookie string.
func (r *Resolver) ResolveRaw(raw string) ResolvedVariant {
	return r.Resolve(ParseCookies(raw))
}
