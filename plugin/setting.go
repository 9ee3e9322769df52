package plugin

import (
	"fmt"
	"slices"

	"github.com/leeforge/pyracms/json"
)

// SettingKind discriminates Setting variants.
type SettingKind string

const (
	SettingString  SettingKind = "string"
	SettingNumber  SettingKind = "number"
	SettingBoolean SettingKind = "boolean"
	SettingSelect  SettingKind = "select"
)

// Setting declares a configurable value for the host's settings UI. The
// registry never stores changed values; overrides come from host config.
type Setting interface {
	Kind() SettingKind
	SettingLabel() string
	DefaultValue() any
	check() error
}

type StringSetting struct {
	Label   string
	Default string
}

type NumberSetting struct {
	Label   string
	Default float64
}

type BooleanSetting struct {
	Label   string
	Default bool
}

type SelectSetting struct {
	Label   string
	Options []string
	Default string
}

func (s StringSetting) Kind() SettingKind  { return SettingString }
func (s NumberSetting) Kind() SettingKind  { return SettingNumber }
func (s BooleanSetting) Kind() SettingKind { return SettingBoolean }
func (s SelectSetting) Kind() SettingKind  { return SettingSelect }

func (s StringSetting) SettingLabel() string  { return s.Label }
func (s NumberSetting) SettingLabel() string  { return s.Label }
func (s BooleanSetting) SettingLabel() string { return s.Label }
func (s SelectSetting) SettingLabel() string  { return s.Label }

func (s StringSetting) DefaultValue() any  { return s.Default }
func (s NumberSetting) DefaultValue() any  { return s.Default }
func (s BooleanSetting) DefaultValue() any { return s.Default }
func (s SelectSetting) DefaultValue() any  { return s.Default }

func (s StringSetting) check() error  { return nil }
func (s NumberSetting) check() error  { return nil }
func (s BooleanSetting) check() error { return nil }

func (s SelectSetting) check() error {
	if len(s.Options) == 0 {
		return fmt.Errorf("select needs at least one option")
	}
	if !slices.Contains(s.Options, s.Default) {
		return fmt.Errorf("default %q is not one of %v", s.Default, s.Options)
	}
	return nil
}

type settingJSON struct {
	Type    SettingKind `json:"type"`
	Label   string      `json:"label"`
	Default any         `json:"default"`
	Options []string    `json:"options,omitempty"`
}

func (s StringSetting) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingJSON{Type: SettingString, Label: s.Label, Default: s.Default})
}

func (s NumberSetting) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingJSON{Type: SettingNumber, Label: s.Label, Default: s.Default})
}

func (s BooleanSetting) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingJSON{Type: SettingBoolean, Label: s.Label, Default: s.Default})
}

func (s SelectSetting) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingJSON{Type: SettingSelect, Label: s.Label, Default: s.Default, Options: s.Options})
}

func cloneSetting(s Setting) Setting {
	switch sel := s.(type) {
	case SelectSetting:
		sel.Options = cloneStrings(sel.Options)
		return sel
	case *SelectSetting:
		if sel == nil {
			return s
		}
		c := *sel
		c.Options = cloneStrings(sel.Options)
		return &c
	}
	return s
}
