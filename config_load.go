package tagloader

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tagloader/layering"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "TAGLOADER_"

// LoadedConfig is a merged configuration plus, per field, the layer that
// supplied it ("env", "file" or "defaults").
type LoadedConfig struct {
	Config Config
	Source map[string]string
}

// LoadConfig merges environment variables over the file at path (YAML or
// JSON by extension; an empty path skips the file) over the defaults, then
// validates the result.
func LoadConfig(path string) (LoadedConfig, error) {
	var fileLayer Config
	if path != "" {
		loaded, err := readConfigFile(path)
		if err != nil {
			return LoadedConfig{}, err
		}
		fileLayer = loaded
	}
	merged, source := layering.Merge(
		layering.Layer[Config]{Name: "env", Snapshot: ConfigFromEnv(os.LookupEnv)},
		layering.Layer[Config]{Name: "file", Snapshot: fileLayer},
		layering.Layer[Config]{Name: "defaults", Snapshot: Config{}.WithDefaults()},
	)
	return LoadedConfig{Config: merged, Source: source}, merged.Validate()
}

func readConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("tagloader: read config: %w", err)
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("tagloader: unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return Config{}, fmt.Errorf("tagloader: decode config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigFromEnv reads TAGLOADER_* variables through lookup.
func ConfigFromEnv(lookup func(string) (string, bool)) Config {
	get := func(key string) string {
		value, _ := lookup(EnvPrefix + key)
		return strings.TrimSpace(value)
	}
	return Config{
		TagID:               get("TAG_ID"),
		ContainerID:         get("CONTAINER_ID"),
		ServerContainerURL:  get("SERVER_CONTAINER_URL"),
		FirstPartyServerURL: get("FIRST_PARTY_SERVER_URL"),
		FirstPartyCDNURL:    get("FIRST_PARTY_CDN_URL"),
		CookieName:          get("COOKIE_NAME"),
		DataLayerName:       get("DATA_LAYER"),
		LibraryElementID:    get("LIBRARY_ELEMENT_ID"),
	}
}

// LoadDotenv reads a .env file and sets variables that are not already
// defined. A missing file is ignored.
func LoadDotenv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = unquote(strings.TrimSpace(value))
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
