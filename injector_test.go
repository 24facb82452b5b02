package tagloader

import (
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-tagloader/dom"
	"github.com/goliatone/go-tagloader/htmldoc"
	"github.com/goliatone/go-tagloader/jswindow"
)

const testPage = `<!doctype html><html><head><title>shop</title><script src="/app.js"></script></head><body></body></html>`

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func browserPage(t *testing.T, page string) (*htmldoc.Document, *jswindow.Window) {
	t.Helper()
	window := jswindow.New()
	doc, err := htmldoc.ParseString(page, htmldoc.WithWindow(window), htmldoc.WithScriptRunner(window.Run))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc, window
}

func evalString(t *testing.T, w *jswindow.Window, expr string) string {
	t.Helper()
	value, err := w.Eval(expr)
	if err != nil {
		t.Fatalf("eval %s: %v", expr, err)
	}
	s, ok := value.(string)
	if !ok {
		t.Fatalf("eval %s: expected string, got %T (%v)", expr, value, value)
	}
	return s
}

func TestInjectTagLoaderVendor(t *testing.T) {
	doc, window := browserPage(t, testPage)
	injector := NewInjector(testConfig())

	if err := injector.Inject(doc, ResolvedVariant{Kind: TagLoader, ScriptDomain: DefaultScriptDomain}); err != nil {
		t.Fatalf("inject: %v", err)
	}

	scripts := doc.Scripts()
	if len(scripts) != 3 {
		t.Fatalf("expected library, config and page scripts, got %+v", scripts)
	}
	library, config := scripts[0], scripts[1]
	if library.Src != "https://www.googletagmanager.com/gtag/js?id=G-TEST123" || !library.Async || library.Parent != "head" {
		t.Fatalf("unexpected library script: %+v", library)
	}
	if !strings.Contains(doc.String(), `<head><script async="" src="https://www.googletagmanager.com/gtag/js?id=G-TEST123"></script><script>`) {
		t.Fatalf("library must be head's first child followed by the config script:\n%s", doc.String())
	}
	if config.Src != "" || !strings.Contains(config.Text, `gtag('config', "G-TEST123", {});`) {
		t.Fatalf("unexpected config script: %+v", config)
	}

	if errs := doc.Errors(); len(errs) != 0 {
		t.Fatalf("inline script failed: %v", errs)
	}
	if got := window.Len("dataLayer"); got != 2 {
		t.Fatalf("expected js and config entries, got %d", got)
	}
	if got := evalString(t, window, "dataLayer[0][0]"); got != "js" {
		t.Fatalf("expected js event first, got %q", got)
	}
	if got := evalString(t, window, "dataLayer[1][0] + ':' + dataLayer[1][1]"); got != "config:G-TEST123" {
		t.Fatalf("unexpected config call %q", got)
	}
	if got := evalString(t, window, "JSON.stringify(dataLayer[1][2])"); got != "{}" {
		t.Fatalf("expected empty params, got %s", got)
	}
}

func TestInjectTagLoaderFirstParty(t *testing.T) {
	doc, window := browserPage(t, testPage)
	injector := NewInjector(testConfig())

	variant := ResolvedVariant{Kind: TagLoader, ScriptDomain: "https://cdn.example.com", FirstParty: true}
	if err := injector.Inject(doc, variant); err != nil {
		t.Fatalf("inject: %v", err)
	}

	if got := doc.Scripts()[0].Src; got != "https://cdn.example.com/gtag/js?id=G-TEST123" {
		t.Fatalf("unexpected library src %q", got)
	}
	if got := evalString(t, window, "JSON.stringify(dataLayer[1][2])"); got != `{"server_container_url":"https://sgtm.example.com"}` {
		t.Fatalf("unexpected params %s", got)
	}
}

func TestInjectTagLoaderKeepsExistingQueue(t *testing.T) {
	doc, window := browserPage(t, testPage)
	if err := window.Run(`window.dataLayer = [{event: "consent"}];`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := NewInjector(testConfig()).Inject(doc, ResolvedVariant{Kind: TagLoader, ScriptDomain: DefaultScriptDomain}); err != nil {
		t.Fatalf("inject: %v", err)
	}
	if got := window.Len("dataLayer"); got != 3 {
		t.Fatalf("expected seeded entry plus two pushes, got %d", got)
	}
	if got := evalString(t, window, "dataLayer[0].event"); got != "consent" {
		t.Fatalf("existing queue overwritten, first entry %q", got)
	}
}

func TestInjectLibraryElementID(t *testing.T) {
	doc, _ := browserPage(t, testPage)
	cfg := testConfig()
	cfg.LibraryElementID = "gtag-library"
	if err := NewInjector(cfg).Inject(doc, ResolvedVariant{Kind: TagLoader, ScriptDomain: DefaultScriptDomain}); err != nil {
		t.Fatalf("inject: %v", err)
	}
	if got := doc.Scripts()[0].ID; got != "gtag-library" {
		t.Fatalf("expected library id, got %q", got)
	}
}

func TestInjectContainerLoader(t *testing.T) {
	doc, window := browserPage(t, testPage)
	if err := window.Run(`window.dataLayer = [{event: "consent"}];`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	injector := NewInjector(testConfig(), WithClock(func() time.Time { return fixedNow }))

	if err := injector.Inject(doc, DefaultVariant()); err != nil {
		t.Fatalf("inject: %v", err)
	}

	scripts := doc.Scripts()
	if len(scripts) != 2 {
		t.Fatalf("expected container and page scripts, got %+v", scripts)
	}
	if scripts[0].Src != "https://www.googletagmanager.com/gtm.js?id=GTM-ABC123" || !scripts[0].Async {
		t.Fatalf("unexpected container script: %+v", scripts[0])
	}
	if scripts[1].Src != "/app.js" {
		t.Fatalf("container must precede the first page script, got %+v", scripts)
	}
	if got := window.Len("dataLayer"); got != 2 {
		t.Fatalf("expected exactly one new queue entry, got %d", got)
	}
	if got := evalString(t, window, "dataLayer[1].event"); got != "gtm.js" {
		t.Fatalf("unexpected event %q", got)
	}
	start, err := window.Eval(`dataLayer[1]["gtm.start"]`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if start != fixedNow.UnixMilli() {
		t.Fatalf("expected gtm.start %d, got %v (%T)", fixedNow.UnixMilli(), start, start)
	}
}

func TestInjectContainerWithoutScriptsOnlyQueues(t *testing.T) {
	doc, window := browserPage(t, `<html><head></head><body></body></html>`)
	if err := NewInjector(testConfig()).Inject(doc, DefaultVariant()); err != nil {
		t.Fatalf("inject: %v", err)
	}
	if len(doc.Scripts()) != 0 {
		t.Fatalf("expected no insertion without an anchor script, got %+v", doc.Scripts())
	}
	if window.Len("dataLayer") != 1 {
		t.Fatalf("expected queue entry regardless of anchor")
	}
}

func TestInjectContainerMaterialisesQueue(t *testing.T) {
	doc, err := htmldoc.ParseString(testPage)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	injector := NewInjector(testConfig(), WithClock(func() time.Time { return fixedNow }))
	if err := injector.Inject(doc, ResolvedVariant{Kind: ContainerLoader, ScriptDomain: "https://metrics.example.com", FirstParty: true}); err != nil {
		t.Fatalf("inject: %v", err)
	}

	scripts := doc.Scripts()
	if len(scripts) != 3 || !scripts[0].Bootstrap {
		t.Fatalf("expected bootstrap, container and page scripts, got %+v", scripts)
	}
	if !strings.Contains(scripts[0].Text, `window["dataLayer"].push({"event":"gtm.js","gtm.start":1709285400000});`) {
		t.Fatalf("unexpected bootstrap:\n%s", scripts[0].Text)
	}
	if scripts[1].Src != "https://metrics.example.com/gtm.js?id=GTM-ABC123" || scripts[2].Src != "/app.js" {
		t.Fatalf("unexpected order: %+v", scripts)
	}
}

func TestInjectCustomDataLayerSuffix(t *testing.T) {
	doc, window := browserPage(t, testPage)
	cfg := testConfig()
	cfg.DataLayerName = "tagQueue"
	injector := NewInjector(cfg)

	if err := injector.Inject(doc, DefaultVariant()); err != nil {
		t.Fatalf("inject: %v", err)
	}
	if got := doc.Scripts()[0].Src; got != "https://www.googletagmanager.com/gtm.js?id=GTM-ABC123&l=tagQueue" {
		t.Fatalf("expected queue suffix, got %q", got)
	}
	if window.Len("tagQueue") != 1 || window.Len("dataLayer") != 0 {
		t.Fatalf("expected push to the named queue only")
	}
	if got := injector.TagLibraryURL(DefaultScriptDomain); got != "https://www.googletagmanager.com/gtag/js?id=G-TEST123" {
		t.Fatalf("gtag url must not carry the queue suffix, got %q", got)
	}
}

func TestNewInjectorRejectsInvalidQueueName(t *testing.T) {
	doc, window := browserPage(t, testPage)
	cfg := testConfig()
	cfg.DataLayerName = "my-layer"
	var events []LogEvent
	injector := NewInjector(cfg, WithLogger(LoggerFunc(func(e LogEvent) { events = append(events, e) })))

	variant := ResolvedVariant{Kind: TagLoader, ScriptDomain: DefaultScriptDomain}
	if err := injector.Inject(doc, variant); err != nil {
		t.Fatalf("inject: %v", err)
	}
	if script := injector.TagConfigScript(variant); strings.Contains(script, "my-layer") {
		t.Fatalf("invalid queue name leaked into script:\n%s", script)
	}
	if window.Len("dataLayer") != 2 {
		t.Fatalf("expected js and config calls on the default queue, got %d", window.Len("dataLayer"))
	}
	if got := injector.ContainerURL(DefaultScriptDomain); got != "https://www.googletagmanager.com/gtm.js?id=GTM-ABC123" {
		t.Fatalf("unexpected container url %q", got)
	}
	if len(events) != 1 || events[0].Err == nil {
		t.Fatalf("expected the fallback to be logged, got %+v", events)
	}
}

func TestInjectTwiceIsNotDeduplicated(t *testing.T) {
	doc, window := browserPage(t, testPage)
	injector := NewInjector(testConfig())
	variant := ResolvedVariant{Kind: TagLoader, ScriptDomain: DefaultScriptDomain}

	for i := 0; i < 2; i++ {
		if err := injector.Inject(doc, variant); err != nil {
			t.Fatalf("inject %d: %v", i, err)
		}
	}
	if got := len(doc.Scripts()); got != 5 {
		t.Fatalf("expected two library/config pairs plus page script, got %d", got)
	}
	if got := window.Len("dataLayer"); got != 4 {
		t.Fatalf("expected queued calls from both injections, got %d", got)
	}

	container, window := browserPage(t, testPage)
	for i := 0; i < 2; i++ {
		if err := injector.Inject(container, DefaultVariant()); err != nil {
			t.Fatalf("inject container %d: %v", i, err)
		}
	}
	if got := len(container.Scripts()); got != 3 {
		t.Fatalf("expected two container scripts plus page script, got %d", got)
	}
	if got := window.Len("dataLayer"); got != 2 {
		t.Fatalf("expected two start events, got %d", got)
	}
}

type fakeNode struct {
	inserted []dom.Node
}

func (n *fakeNode) ParentNode() dom.Node  { return nil }
func (n *fakeNode) FirstChild() dom.Node  { return nil }
func (n *fakeNode) NextSibling() dom.Node { return nil }
func (n *fakeNode) InsertBefore(child, _ dom.Node) {
	n.inserted = append(n.inserted, child)
}

type fakeScript struct {
	fakeNode
	src, text, id string
	async         bool
}

func (s *fakeScript) SetAsync(async bool) { s.async = async }
func (s *fakeScript) SetSrc(src string)   { s.src = src }
func (s *fakeScript) SetText(text string) { s.text = text }
func (s *fakeScript) SetID(id string)     { s.id = id }

// detachedEnv never attaches anything: inserted nodes keep a nil parent.
type detachedEnv struct {
	head    fakeNode
	scripts []*fakeScript
	pushes  []map[string]any
}

func (e *detachedEnv) Cookie() string        { return "" }
func (e *detachedEnv) Head() dom.Node        { return &e.head }
func (e *detachedEnv) FirstScript() dom.Node { return nil }
func (e *detachedEnv) CreateScript() dom.Script {
	s := &fakeScript{}
	e.scripts = append(e.scripts, s)
	return s
}
func (e *detachedEnv) DataLayer(string) dom.Queue { return e }
func (e *detachedEnv) Push(entry map[string]any) { e.pushes = append(e.pushes, entry) }

func TestInjectSkipsConfigWhenLibraryDetached(t *testing.T) {
	env := &detachedEnv{}
	if err := NewInjector(testConfig()).Inject(env, ResolvedVariant{Kind: TagLoader, ScriptDomain: DefaultScriptDomain}); err != nil {
		t.Fatalf("inject: %v", err)
	}
	if len(env.head.inserted) != 1 {
		t.Fatalf("expected only the library insertion, got %d", len(env.head.inserted))
	}
	if len(env.scripts) != 2 || env.scripts[1].text == "" {
		t.Fatalf("expected config script to be built but not inserted")
	}
}

type panickingEnv struct {
	detachedEnv
}

func (e *panickingEnv) Head() dom.Node { panic("head unavailable") }

func TestInjectRecoversEnvironmentPanics(t *testing.T) {
	err := NewInjector(testConfig()).Inject(&panickingEnv{}, ResolvedVariant{Kind: TagLoader, ScriptDomain: DefaultScriptDomain})
	injErr, ok := err.(*InjectionError)
	if !ok {
		t.Fatalf("expected InjectionError, got %T %v", err, err)
	}
	if injErr.Kind != TagLoader || !strings.Contains(injErr.Error(), "head unavailable") {
		t.Fatalf("unexpected error %v", injErr)
	}
	if err := NewInjector(testConfig()).Inject(nil, DefaultVariant()); err != nil {
		t.Fatalf("nil environment should be a no-op, got %v", err)
	}
}
