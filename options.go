package tagloader

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-tagloader/pkg/activity"
)

type loaderConfig struct {
	engine          RuleEngine
	rules           []Rule
	logger          Logger
	now             func() time.Time
	newID           func() string
	activityHooks   activity.Hooks
	activityChannel string
}

func applyOptions(opts []Option) loaderConfig {
	cfg := loaderConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.engine == nil {
		cfg.engine = NewExprEngine()
	}
	if cfg.rules == nil {
		cfg.rules = DefaultRules()
	}
	if cfg.logger == nil {
		cfg.logger = ZapLogger(zap.L())
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.newID == nil {
		cfg.newID = uuid.NewString
	}
	return cfg
}

// WithRuleEngine selects the engine compiling rule predicates. A nil engine
// keeps the expr default.
func WithRuleEngine(engine RuleEngine) Option {
	return func(cfg *loaderConfig) {
		if engine != nil {
			cfg.engine = engine
		}
	}
}

// WithRules replaces the built-in five-way tag-type table.
func WithRules(rules ...Rule) Option {
	cloned := append([]Rule{}, rules...)
	return func(cfg *loaderConfig) {
		cfg.rules = cloned
	}
}

// WithClock overrides the time source used for the gtm.start timestamp.
func WithClock(now func() time.Time) Option {
	return func(cfg *loaderConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithIDGenerator overrides how injection ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(cfg *loaderConfig) {
		if newID != nil {
			cfg.newID = newID
		}
	}
}
