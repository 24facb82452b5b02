package tagloader

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-tagloader/dom"
)

// Injector inserts loader scripts into a page. It is not idempotent: every
// call inserts a fresh set of elements and pushes fresh queue entries.
type Injector struct {
	cfg Config
	now func() time.Time
}

// NewInjector constructs an Injector for cfg. A DataLayerName that is not a
// JavaScript identifier is replaced by DefaultDataLayerName.
func NewInjector(cfg Config, opts ...Option) *Injector {
	options := applyOptions(opts)
	cfg = cfg.WithDefaults()
	if !identifierPattern.MatchString(cfg.DataLayerName) {
		options.logger.Log(LogEvent{
			Stage: "inject",
			Err:   fmt.Errorf("data_layer %q is not a javascript identifier, using %q", cfg.DataLayerName, DefaultDataLayerName),
		})
		cfg.DataLayerName = DefaultDataLayerName
	}
	return &Injector{cfg: cfg, now: options.now}
}

// Inject applies variant to env. Missing anchors are skipped silently; the
// only error is a recovered panic from env, wrapped in InjectionError.
func (i *Injector) Inject(env dom.Environment, variant ResolvedVariant) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InjectionError{Kind: variant.Kind, Err: fmt.Errorf("environment panic: %v", r)}
		}
	}()
	if env == nil {
		return nil
	}
	switch variant.Kind {
	case TagLoader:
		i.injectTag(env, variant)
	default:
		i.injectContainer(env, variant)
	}
	return nil
}

// TagLibraryURL is the gtag.js source for domain.
func (i *Injector) TagLibraryURL(domain string) string {
	return fmt.Sprintf("%s/gtag/js?id=%s", domain, i.cfg.TagID)
}

// ContainerURL is the gtm.js source for domain.
func (i *Injector) ContainerURL(domain string) string {
	return fmt.Sprintf("%s/gtm.js?id=%s%s", domain, i.cfg.ContainerID, i.queueSuffix())
}

// queueSuffix names a non-default queue to gtm.js.
func (i *Injector) queueSuffix() string {
	if i.cfg.DataLayerName == DefaultDataLayerName {
		return ""
	}
	return "&l=" + i.cfg.DataLayerName
}

func (i *Injector) injectTag(env dom.Environment, variant ResolvedVariant) {
	head := env.Head()
	if head == nil {
		return
	}
	library := env.CreateScript()
	library.SetAsync(true)
	library.SetSrc(i.TagLibraryURL(variant.ScriptDomain))
	if i.cfg.LibraryElementID != "" {
		library.SetID(i.cfg.LibraryElementID)
	}
	head.InsertBefore(library, head.FirstChild())

	config := env.CreateScript()
	config.SetText(i.TagConfigScript(variant))

	parent := library.ParentNode()
	if parent == nil {
		return
	}
	parent.InsertBefore(config, library.NextSibling())
}

// TagConfigScript is the inline script queueing the gtag js and config
// calls. The params object carries server_container_url in first-party mode.
func (i *Injector) TagConfigScript(variant ResolvedVariant) string {
	params := map[string]string{}
	if variant.FirstParty {
		params["server_container_url"] = i.cfg.ServerContainerURL
	}
	encodedParams, _ := json.Marshal(params)
	encodedID, _ := json.Marshal(i.cfg.TagID)
	queue := i.cfg.DataLayerName
	return strings.Join([]string{
		fmt.Sprintf("window.%s = window.%s || [];", queue, queue),
		fmt.Sprintf("function gtag(){%s.push(arguments);}", queue),
		"gtag('js', new Date());",
		fmt.Sprintf("gtag('config', %s, %s);", encodedID, encodedParams),
	}, "\n")
}

func (i *Injector) injectContainer(env dom.Environment, variant ResolvedVariant) {
	env.DataLayer(i.cfg.DataLayerName).Push(map[string]any{
		"gtm.start": i.now().UnixMilli(),
		"event":     "gtm.js",
	})

	first := env.FirstScript()
	if first == nil {
		return
	}
	parent := first.ParentNode()
	if parent == nil {
		return
	}
	container := env.CreateScript()
	container.SetAsync(true)
	container.SetSrc(i.ContainerURL(variant.ScriptDomain))
	parent.InsertBefore(container, first)
}
