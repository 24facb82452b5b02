package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	tagloader "github.com/goliatone/go-tagloader"
	"github.com/goliatone/go-tagloader/internal/proxy"
	"github.com/goliatone/go-tagloader/pkg/activity"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "tagproxy",
		Usage: "Inject the analytics loader chosen by the tag-type cookie",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML or JSON config file",
			},
			&cli.StringFlag{
				Name:  "rules",
				Usage: "Path to a rule table replacing the built-in tag-type policy",
			},
			&cli.StringFlag{
				Name:  "engine",
				Usage: "Rule engine: expr, cel or js",
				Value: "expr",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			newServeCommand(),
			newResolveCommand(),
		},
	}
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Reverse proxy an upstream site and inject the loader into HTML pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "upstream",
				Usage:    "Origin to proxy, e.g. http://localhost:3000",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on",
				Value: ":8080",
			},
		},
		Action: runServe,
	}
}

func newResolveCommand() *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Print the loader a cookie string resolves to",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "cookie",
				Usage: `Raw cookie string, e.g. "tag-type=gtag"`,
			},
		},
		Action: runResolve,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	upstream, err := url.Parse(cmd.String("upstream"))
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return fmt.Errorf("invalid upstream %q", cmd.String("upstream"))
	}

	loader, err := buildLoader(cmd, logger,
		tagloader.WithActivityHooks(activity.HookFunc(func(_ context.Context, event activity.Event) error {
			logger.Debug("loader injected",
				zap.String("injection_id", event.ObjectID),
				zap.Any("metadata", event.Metadata))
			return nil
		})),
	)
	if err != nil {
		return err
	}

	server := proxy.NewServer(cmd.String("listen"), upstream, loader, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func runResolve(_ context.Context, cmd *cli.Command) error {
	loader, err := buildLoader(cmd, zap.NewNop())
	if err != nil {
		return err
	}
	cookies := tagloader.ParseCookies(cmd.String("cookie"))
	event := tagloader.LogEvent{
		Stage:   "load",
		TagType: cookies.Value(loader.Config().CookieName),
		Variant: loader.Resolver().Resolve(cookies),
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, event.Message())
	return err
}

func buildLoader(cmd *cli.Command, logger *zap.Logger, extra ...tagloader.Option) (*tagloader.Loader, error) {
	loaded, err := tagloader.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	for field, source := range loaded.Source {
		logger.Debug("config field", zap.String("field", field), zap.String("source", source))
	}

	engine, err := ruleEngine(cmd.String("engine"))
	if err != nil {
		return nil, err
	}
	opts := []tagloader.Option{
		tagloader.WithRuleEngine(engine),
		tagloader.WithLogger(tagloader.ZapLogger(logger)),
	}
	if path := cmd.String("rules"); path != "" {
		rules, err := tagloader.LoadRules(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tagloader.WithRules(rules...))
	}
	return tagloader.NewLoader(loaded.Config, append(opts, extra...)...)
}

func ruleEngine(name string) (tagloader.RuleEngine, error) {
	switch name {
	case "", "expr":
		return tagloader.NewExprEngine(), nil
	case "cel":
		return tagloader.NewCELEngine()
	case "js":
		if engine := tagloader.NewJSEngine(); engine != nil {
			return engine, nil
		}
		return nil, errors.New("js rule engine not compiled in (build with -tags js_eval)")
	default:
		return nil, fmt.Errorf("unknown rule engine %q", name)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
