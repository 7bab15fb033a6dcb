package watcher

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trustgate/trustgate/internal/types"
)

// Config maps watched files to registry entities, loaded from YAML.
type Config struct {
	// Roots are the directories to watch recursively.
	Roots []string `yaml:"roots"`

	// Rules map path prefixes to entity types. First match wins.
	Rules []Rule `yaml:"rules"`

	// DefaultType applies when no rule matches. Empty means unmatched
	// files are ignored.
	DefaultType string `yaml:"default_type"`
}

// Rule assigns an entity type to files under a path prefix.
type Rule struct {
	PathPrefix string `yaml:"path_prefix"`
	EntityType string `yaml:"entity_type"`
}

// LoadConfig loads watcher configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading watcher config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing watcher config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig watches the current directory and treats every file as a
// code node.
func DefaultConfig() *Config {
	return &Config{
		Roots:       []string{"."},
		DefaultType: string(types.TypeCodeNode),
	}
}

// Validate checks that every configured entity type is a known type.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return fmt.Errorf("at least one watch root is required")
	}
	for _, rule := range c.Rules {
		if rule.PathPrefix == "" {
			return fmt.Errorf("rule path_prefix is required")
		}
		if !types.EntityType(rule.EntityType).IsValid() {
			return fmt.Errorf("rule for %q has invalid entity type %q", rule.PathPrefix, rule.EntityType)
		}
	}
	if c.DefaultType != "" && !types.EntityType(c.DefaultType).IsValid() {
		return fmt.Errorf("invalid default entity type %q", c.DefaultType)
	}
	return nil
}

// EntityTypeFor resolves the entity type for a file path. The second return
// is false when the path matches no rule and no default is configured.
func (c *Config) EntityTypeFor(path string) (types.EntityType, bool) {
	for _, rule := range c.Rules {
		if strings.HasPrefix(path, rule.PathPrefix) {
			return types.EntityType(rule.EntityType), true
		}
	}
	if c.DefaultType != "" {
		return types.EntityType(c.DefaultType), true
	}
	return "", false
}
