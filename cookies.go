package tagloader

import (
	"regexp"
	"strings"
	"sync"
)

// Cookies is a snapshot of a raw cookie string, as exposed by
// document.cookie or the Cookie request header. Lookups follow the browser
// helper the loader has always used: `(^| )name=([^;]+)`, leftmost match wins.
type Cookies struct {
	raw string
}

// ParseCookies captures raw for later lookups.
func ParseCookies(raw string) Cookies {
	return Cookies{raw: raw}
}

// Raw returns the captured cookie string.
func (c Cookies) Raw() string {
	return c.raw
}

// Get returns the first value stored under name. Empty values are reported
// as absent.
func (c Cookies) Get(name string) (string, bool) {
	if name == "" || c.raw == "" {
		return "", false
	}
	match := cookiePattern(name).FindStringSubmatch(c.raw)
	if match == nil {
		return "", false
	}
	return match[2], true
}

// Value is Get without the presence flag.
func (c Cookies) Value(name string) string {
	value, _ := c.Get(name)
	return value
}

// Names lists cookie names in the order they first appear.
func (c Cookies) Names() []string {
	var names []string
	seen := map[string]struct{}{}
	for _, part := range strings.Split(c.raw, ";") {
		name, _, ok := strings.Cut(strings.TrimLeft(part, " "), "=")
		if !ok || name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func (c Cookies) anyMap() map[string]any {
	out := map[string]any{}
	for _, name := range c.Names() {
		if value, ok := c.Get(name); ok {
			out[name] = value
		}
	}
	return out
}

func (c Cookies) stringMap() map[string]string {
	out := map[string]string{}
	for _, name := range c.Names() {
		if value, ok := c.Get(name); ok {
			out[name] = value
		}
	}
	return out
}

var patterns sync.Map

func cookiePattern(name string) *regexp.Regexp {
	if cached, ok := patterns.Load(name); ok {
		return cached.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(^| )` + regexp.QuoteMeta(name) + `=([^;]+)`)
	actual, _ := patterns.LoadOrStore(name, re)
	return actual.(*regexp.Regexp)
}
