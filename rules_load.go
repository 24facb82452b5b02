package tagloader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tagloader/internal/hydrate"
)

// ErrInvalidRules wraps every rule file failure.
var ErrInvalidRules = errors.New("tagloader: invalid rules")

// LoadRules reads an ordered rule table from a YAML or JSON file shaped as
//
//	rules:
//	  - name: beta
//	    when: cookies["beta"] == "1"
//	    kind: gtag
//	    target: first-party-cdn
//
// Unnamed rules are numbered by position. Expressions are compiled later, by
// the engine the Resolver is built with.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tagloader: read rules: %w", err)
	}
	var doc struct {
		Rules []any `json:"rules" yaml:"rules"`
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidRules, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRules, path, err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("%w: %s declares no rules", ErrInvalidRules, path)
	}

	decoder := hydrate.NewDecoder[Rule](
		hydrate.WithPreHook[Rule](normaliseRuleKeys),
		hydrate.WithPostHook[Rule](checkRule),
		hydrate.WithDisallowUnknownFields[Rule](),
	)
	rules, err := decoder.DecodeList(filepath.Base(path), doc.Rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	return rules, nil
}

func normaliseRuleKeys(_ hydrate.Context, doc map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(doc))
	for key, value := range doc {
		out[strings.ToLower(strings.TrimSpace(key))] = value
	}
	return out, nil
}

func checkRule(ctx hydrate.Context, rule *Rule) error {
	rule.When = strings.TrimSpace(rule.When)
	if rule.When == "" {
		return errors.New("when is required")
	}
	if rule.Name == "" {
		rule.Name = fmt.Sprintf("rule[%d]", ctx.Index)
	}
	return nil
}
