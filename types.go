package tagloader

import (
	"fmt"
	"strings"
)

// DefaultScriptDomain is the vendor origin serving both loaders.
const DefaultScriptDomain = "https://www.googletagmanager.com"

// LoaderKind identifies which loader family is injected into a page.
type LoaderKind int

const (
	// ContainerLoader bootstraps a remotely configured GTM container.
	ContainerLoader LoaderKind = iota
	// TagLoader bootstraps gtag.js and queues a config call.
	TagLoader
)

func (k LoaderKind) String() string {
	switch k {
	case TagLoader:
		return "GTAG"
	case ContainerLoader:
		return "GTM"
	default:
		return fmt.Sprintf("LoaderKind(%d)", int(k))
	}
}

// MarshalText renders the kind as GTAG or GTM.
func (k LoaderKind) MarshalText() ([]byte, error) {
	switch k {
	case TagLoader, ContainerLoader:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("tagloader: unknown loader kind %d", int(k))
}

// UnmarshalText accepts GTAG/TAG or GTM/CONTAINER in any case.
func (k *LoaderKind) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "GTAG", "TAG":
		*k = TagLoader
	case "GTM", "CONTAINER":
		*k = ContainerLoader
	default:
		return fmt.Errorf("tagloader: unknown loader kind %q", text)
	}
	return nil
}

// Target names the origin a rule routes script traffic through.
type Target int

const (
	// TargetVendor is DefaultScriptDomain.
	TargetVendor Target = iota
	// TargetFirstPartyServer is Config.FirstPartyServerURL.
	TargetFirstPartyServer
	// TargetFirstPartyCDN is Config.FirstPartyCDNURL.
	TargetFirstPartyCDN
)

func (t Target) String() string {
	switch t {
	case TargetVendor:
		return "vendor"
	case TargetFirstPartyServer:
		return "first-party-server"
	case TargetFirstPartyCDN:
		return "first-party-cdn"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// MarshalText renders the target name.
func (t Target) MarshalText() ([]byte, error) {
	switch t {
	case TargetVendor, TargetFirstPartyServer, TargetFirstPartyCDN:
		return []byte(t.String()), nil
	}
	return nil, fmt.Errorf("tagloader: unknown target %d", int(t))
}

// UnmarshalText accepts the names produced by MarshalText. An empty value is
// the vendor origin.
func (t *Target) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "vendor":
		*t = TargetVendor
	case "first-party-server":
		*t = TargetFirstPartyServer
	case "first-party-cdn":
		*t = TargetFirstPartyCDN
	default:
		return fmt.Errorf("tagloader: unknown target %q", text)
	}
	return nil
}

// ResolvedVariant is the outcome of one resolution. FirstParty is true exactly
// when ScriptDomain is one of the configured first-party origins.
type ResolvedVariant struct {
	Kind         LoaderKind
	ScriptDomain string
	FirstParty   bool
}

// DefaultVariant is the fallback for absent, empty or unrecognised cookies.
func DefaultVariant() ResolvedVariant {
	return ResolvedVariant{
		Kind:         ContainerLoader,
		ScriptDomain: DefaultScriptDomain,
		FirstParty:   false,
	}
}

// Facts are the inputs a rule predicate can observe.
type Facts struct {
	// TagType is the value of the designated cookie, or "" when absent.
	TagType string
	Cookies Cookies
}

func (f Facts) environment() map[string]any {
	return map[string]any{
		"tag_type": f.TagType,
		"cookies":  f.Cookies.anyMap(),
	}
}

// RuleEngine compiles rule expressions into predicates.
type RuleEngine interface {
	Name() string
	Compile(expression string) (Predicate, error)
}

// Predicate reports whether a compiled rule matches the facts.
type Predicate interface {
	Match(facts Facts) (bool, error)
}

// Option configures a Resolver, Injector or Loader.
type Option func(*loaderConfig)
