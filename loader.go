package tagloader

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-tagloader/dom"
	"github.com/goliatone/go-tagloader/pkg/activity"
)

// Loader resolves the variant for a page and injects it.
type Loader struct {
	cfg      Config
	resolver *Resolver
	injector *Injector
	logger   Logger
	emitter  *activity.Emitter
	options  loaderConfig
}

// Result describes one Load call.
type Result struct {
	ID      string
	TagType string
	Variant ResolvedVariant
}

// NewLoader validates cfg and compiles the rule table. Without WithLogger the
// advisory line goes to zap.L(), which discards it until the application
// calls zap.ReplaceGlobals.
func NewLoader(cfg Config, opts ...Option) (*Loader, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := applyOptions(opts)
	resolver, err := NewResolver(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Loader{
		cfg:      cfg,
		resolver: resolver,
		injector: NewInjector(cfg, opts...),
		logger:   options.logger,
		emitter:  activity.NewEmitter(options.activityHooks, options.activityChannel),
		options:  options,
	}, nil
}

// Config returns the effective configuration.
func (l *Loader) Config() Config {
	return l.cfg
}

// Resolver exposes the compiled resolver.
func (l *Loader) Resolver() *Resolver {
	return l.resolver
}

// Injector exposes the injector.
func (l *Loader) Injector() *Injector {
	return l.injector
}

// Load reads the cookies from env, resolves the variant, logs the advisory
// line and injects. Calling it twice on the same page injects twice. A nil
// env is a no-op. The returned error is non-nil only when env panicked,
// reported as an InjectionError; hook failures are logged, never returned.
func (l *Loader) Load(ctx context.Context, env dom.Environment) (result Result, err error) {
	if env == nil {
		return Result{Variant: DefaultVariant()}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &InjectionError{Kind: result.Variant.Kind, Err: fmt.Errorf("environment panic: %v", r)}
			l.logger.Log(LogEvent{Stage: "inject", TagType: result.TagType, Variant: result.Variant, Err: err})
		}
	}()

	result.Variant = DefaultVariant()
	cookies := ParseCookies(env.Cookie())
	variant := l.resolver.Resolve(cookies)
	result = Result{
		ID:      l.options.newID(),
		TagType: cookies.Value(l.cfg.CookieName),
		Variant: variant,
	}

	l.logger.Log(LogEvent{Stage: "load", TagType: result.TagType, Variant: variant})
	if err := l.injector.Inject(env, variant); err != nil {
		l.logger.Log(LogEvent{Stage: "inject", TagType: result.TagType, Variant: variant, Err: err})
		return result, err
	}

	if l.emitter.Enabled() {
		actor, _ := activity.ActorFromContext(ctx)
		event := activity.BuildInjectedEvent(activity.InjectionInput{
			InjectionID:  result.ID,
			Actor:        actor,
			Loader:       variant.Kind.String(),
			ScriptDomain: variant.ScriptDomain,
			FirstParty:   variant.FirstParty,
			TagType:      result.TagType,
			OccurredAt:   l.options.now(),
		})
		if err := l.emitter.Emit(ctx, event); err != nil {
			l.logger.Log(LogEvent{Stage: "activity", TagType: result.TagType, Variant: variant, Err: err})
		}
	}
	return result, nil
}

// Once guards a single page against repeated loads.
type Once struct {
	loader *Loader
	once   sync.Once
	result Result
	err    error
}

// Once returns a guard whose Load runs l.Load at most once.
func (l *Loader) Once() *Once {
	return &Once{loader: l}
}

// Load injects on the first call. Later calls return the first result and
// report invoked=false.
func (o *Once) Load(ctx context.Context, env dom.Environment) (result Result, invoked bool, err error) {
	o.once.Do(func() {
		o.result, o.err = o.loader.Load(ctx, env)
		invoked = true
	})
	return o.result, invoked, o.err
}
