package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/careertrojan/ops-core/internal/logger"
)

// Capabilities is the feature-flag and theme lookup for the portals. It is
// constructed once at startup and injected into consumers; the loaded
// configuration is read-only afterwards and safe for concurrent readers.
//
// Feature gating fails closed: a missing registry file degrades to an empty
// configuration where every check returns false.
type Capabilities struct {
	config map[string]any
}

// Load reads the YAML registry at path. A missing file is not an error.
func Load(path string, l *logger.Logger) (*Capabilities, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.Info("capability registry absent, all capabilities disabled", "path", path)
			return &Capabilities{config: map[string]any{}}, nil
		}
		return nil, fmt.Errorf("failed to read capability registry: %w", err)
	}

	config := map[string]any{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse capability registry: %w", err)
	}

	return &Capabilities{config: config}, nil
}

// NewFromConfig builds a registry over an already-parsed configuration.
// Used by tests and embedded defaults.
func NewFromConfig(config map[string]any) *Capabilities {
	if config == nil {
		config = map[string]any{}
	}
	return &Capabilities{config: config}
}

// Check traverses the configuration by splitting path on dots. It never
// fails: any missing segment, non-navigable value, or non-truthy leaf
// yields false.
func (c *Capabilities) Check(path string) bool {
	var current any = c.config
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return false
		}
		current, ok = node[segment]
		if !ok {
			return false
		}
	}
	return truthy(current)
}

// IsFeatureEnabled reports membership of feature in the portal's feature list.
func (c *Capabilities) IsFeatureEnabled(portal, feature string) bool {
	features, ok := c.lookup("capabilities", "portals", portal, "features").([]any)
	if !ok {
		return false
	}
	for _, f := range features {
		if name, ok := f.(string); ok && name == feature {
			return true
		}
	}
	return false
}

// PortalTheme returns the portal's theme mapping, or an empty map.
func (c *Capabilities) PortalTheme(portal string) map[string]any {
	theme, ok := c.lookup("capabilities", "portals", portal, "theme").(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return theme
}

func (c *Capabilities) lookup(segments ...string) any {
	var current any = c.config
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = node[segment]
		if !ok {
			return nil
		}
	}
	return current
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
