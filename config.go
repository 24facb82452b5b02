package tagloader

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

const (
	// DefaultCookieName is the cookie carrying the tag-type discriminator.
	DefaultCookieName = "tag-type"
	// DefaultDataLayerName is the conventional window queue name.
	DefaultDataLayerName = "dataLayer"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("tagloader: invalid config")

// Config holds the build-time identifiers and first-party origins. It is
// read-only once a Loader has been constructed.
type Config struct {
	TagID               string `json:"tag_id" yaml:"tag_id"`
	ContainerID         string `json:"container_id" yaml:"container_id"`
	ServerContainerURL  string `json:"server_container_url" yaml:"server_container_url"`
	FirstPartyServerURL string `json:"first_party_server_url" yaml:"first_party_server_url"`
	FirstPartyCDNURL    string `json:"first_party_cdn_url" yaml:"first_party_cdn_url"`

	CookieName       string `json:"cookie_name" yaml:"cookie_name"`
	DataLayerName    string `json:"data_layer" yaml:"data_layer"`
	LibraryElementID string `json:"library_element_id" yaml:"library_element_id"`
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// WithDefaults fills the optional fields.
func (c Config) WithDefaults() Config {
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.DataLayerName == "" {
		c.DataLayerName = DefaultDataLayerName
	}
	return c
}

// Validate checks identifiers and origins.
func (c Config) Validate() error {
	c = c.WithDefaults()
	var errs []error
	if c.TagID == "" {
		errs = append(errs, errors.New("tag_id is required"))
	}
	if c.ContainerID == "" {
		errs = append(errs, errors.New("container_id is required"))
	}
	for field, value := range map[string]string{
		"server_container_url":   c.ServerContainerURL,
		"first_party_server_url": c.FirstPartyServerURL,
		"first_party_cdn_url":    c.FirstPartyCDNURL,
	} {
		if value == "" {
			continue
		}
		if err := validateOrigin(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	if (c.FirstPartyServerURL != "" || c.FirstPartyCDNURL != "") && c.ServerContainerURL == "" {
		errs = append(errs, errors.New("server_container_url is required when a first-party url is set"))
	}
	if !identifierPattern.MatchString(c.DataLayerName) {
		errs = append(errs, fmt.Errorf("data_layer %q is not a javascript identifier", c.DataLayerName))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func validateOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an absolute http(s) url", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// domainFor maps a rule target to the configured origin, reporting false when
// the origin is not configured.
func (c Config) domainFor(target Target) (string, bool) {
	switch target {
	case TargetVendor:
		return DefaultScriptDomain, true
	case TargetFirstPartyServer:
		return c.FirstPartyServerURL, c.FirstPartyServerURL != ""
	case TargetFirstPartyCDN:
		return c.FirstPartyCDNURL, c.FirstPartyCDNURL != ""
	default:
		return "", false
	}
}
