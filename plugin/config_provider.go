package plugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leeforge/pyracms/json"
	"github.com/spf13/cast"
)

// SettingsProvider resolves a plugin's settings: a host override when one is
// configured, otherwise the declared default.
type SettingsProvider interface {
	Get(key string) (any, bool)
	GetString(key string, defaultVal string) string
	GetInt(key string, defaultVal int) int
	GetFloat(key string, defaultVal float64) float64
	GetBool(key string, defaultVal bool) bool
	All() map[string]any
	Bind(target any) error
}

// PluginSettings is the SettingsProvider backed by declared settings and a
// map of overrides from host config. Override keys match case-insensitively
// because viper lower-cases them.
type PluginSettings struct {
	declared  map[string]Setting
	overrides map[string]any
}

func NewSettings(declared map[string]Setting, overrides map[string]any) *PluginSettings {
	if declared == nil {
		declared = map[string]Setting{}
	}
	if overrides == nil {
		overrides = map[string]any{}
	}
	return &PluginSettings{declared: declared, overrides: overrides}
}

func (s *PluginSettings) override(key string) (any, bool) {
	if v, ok := s.overrides[key]; ok {
		return v, true
	}
	for k, v := range s.overrides {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Get returns the resolved value. Overrides of a declared setting are
// coerced to its kind; an override that cannot be coerced yields the default.
func (s *PluginSettings) Get(key string) (any, bool) {
	decl, declared := s.declared[key]
	raw, overridden := s.override(key)

	switch {
	case declared && overridden:
		if v, err := coerce(decl, raw); err == nil {
			return v, true
		}
		return decl.DefaultValue(), true
	case declared:
		return decl.DefaultValue(), true
	case overridden:
		return raw, true
	default:
		return nil, false
	}
}

func (s *PluginSettings) GetString(key string, defaultVal string) string {
	v, ok := s.Get(key)
	if !ok {
		return defaultVal
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return defaultVal
	}
	return str
}

func (s *PluginSettings) GetInt(key string, defaultVal int) int {
	v, ok := s.Get(key)
	if !ok {
		return defaultVal
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func (s *PluginSettings) GetFloat(key string, defaultVal float64) float64 {
	v, ok := s.Get(key)
	if !ok {
		return defaultVal
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return defaultVal
	}
	return f
}

func (s *PluginSettings) GetBool(key string, defaultVal bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return defaultVal
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// All returns every declared setting plus any undeclared overrides.
func (s *PluginSettings) All() map[string]any {
	out := make(map[string]any, len(s.declared)+len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	for k := range s.declared {
		for ov := range out {
			if ov != k && strings.EqualFold(ov, k) {
				delete(out, ov)
			}
		}
		out[k], _ = s.Get(k)
	}
	return out
}

func (s *PluginSettings) Bind(target any) error {
	data, err := json.Marshal(s.All())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// Validate reports overrides that cannot be coerced to their declared kind,
// and select overrides outside the declared options.
func (s *PluginSettings) Validate() error {
	keys := make([]string, 0, len(s.declared))
	for k := range s.declared {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var problems []string
	for _, k := range keys {
		raw, ok := s.override(k)
		if !ok {
			continue
		}
		if _, err := coerce(s.declared[k], raw); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", k, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid setting overrides: %s", strings.Join(problems, "; "))
	}
	return nil
}

func coerce(decl Setting, raw any) (any, error) {
	switch d := decl.(type) {
	case StringSetting:
		return cast.ToStringE(raw)
	case NumberSetting:
		return cast.ToFloat64E(raw)
	case BooleanSetting:
		return cast.ToBoolE(raw)
	case SelectSetting:
		v, err := cast.ToStringE(raw)
		if err != nil {
			return nil, err
		}
		for _, opt := range d.Options {
			if opt == v {
				return v, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of %v", v, d.Options)
	default:
		return nil, fmt.Errorf("unsupported setting kind %q", decl.Kind())
	}
}
