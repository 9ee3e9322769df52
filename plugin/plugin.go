// Package plugin defines the descriptors a module contributes to the host and
// the contracts its lifecycle hooks run against.
package plugin

import "context"

// Hook names as they appear in errors and logs.
const (
	HookInstall    = "onInstall"
	HookUninstall  = "onUninstall"
	HookActivate   = "onActivate"
	HookDeactivate = "onDeactivate"
)

// Hook is a lifecycle callback. A non-nil error aborts the transition.
type Hook func(ctx context.Context, app *AppContext) error

// Hooks are optional; a nil hook always succeeds.
type Hooks struct {
	OnInstall    Hook
	OnUninstall  Hook
	OnActivate   Hook
	OnDeactivate Hook
}

// Plugin is the immutable definition of a module. Build it with Build or
// MustBuild.
type Plugin struct {
	Metadata      Metadata           `json:"metadata"`
	Routes        []Route            `json:"routes,omitempty"`
	Navigation    []NavItem          `json:"navigation,omitempty"`
	DataModels    []DataModel        `json:"dataModels,omitempty"`
	APIExtensions []APIExtension     `json:"apiExtensions,omitempty"`
	Settings      map[string]Setting `json:"settings,omitempty"`
	Hooks         Hooks              `json:"-"`
}

func (p Plugin) ID() string { return p.Metadata.ID }

// Clone copies every slice and map so the copy can be handed out without
// exposing the original's backing storage.
func (p Plugin) Clone() Plugin {
	out := p

	if p.Routes != nil {
		out.Routes = make([]Route, len(p.Routes))
		for i, r := range p.Routes {
			out.Routes[i] = r.clone()
		}
	}
	if p.Navigation != nil {
		out.Navigation = make([]NavItem, len(p.Navigation))
		for i, n := range p.Navigation {
			out.Navigation[i] = n.clone()
		}
	}
	if p.DataModels != nil {
		out.DataModels = make([]DataModel, len(p.DataModels))
		for i, m := range p.DataModels {
			out.DataModels[i] = m.clone()
		}
	}
	if p.APIExtensions != nil {
		out.APIExtensions = append([]APIExtension(nil), p.APIExtensions...)
	}
	if p.Settings != nil {
		out.Settings = make(map[string]Setting, len(p.Settings))
		for k, s := range p.Settings {
			out.Settings[k] = cloneSetting(s)
		}
	}
	return out
}

// Hook returns the hook registered under name, or nil.
func (h Hooks) Hook(name string) Hook {
	switch name {
	case HookInstall:
		return h.OnInstall
	case HookUninstall:
		return h.OnUninstall
	case HookActivate:
		return h.OnActivate
	case HookDeactivate:
		return h.OnDeactivate
	default:
		return nil
	}
}
