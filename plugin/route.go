package plugin

import "net/http"

// Route contributes a page to the host. Path may contain ":param" segments.
// Component is resolved the first time the route is served.
type Route struct {
	Path         string              `json:"path"`
	Component    *Lazy[http.Handler] `json:"-"`
	Title        string              `json:"title,omitempty"`
	RequiresAuth bool                `json:"requiresAuth,omitempty"`
	Permissions  []string            `json:"permissions,omitempty"`
}

// NavItem is a menu entry. Items are sorted by Order, ties keep their
// registration order.
type NavItem struct {
	Label        string   `json:"label"`
	Path         string   `json:"path"`
	Icon         string   `json:"icon,omitempty"`
	Order        int      `json:"order"`
	RequiresAuth bool     `json:"requiresAuth,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}

func (r Route) clone() Route {
	r.Permissions = cloneStrings(r.Permissions)
	return r
}

func (n NavItem) clone() NavItem {
	n.Permissions = cloneStrings(n.Permissions)
	return n
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
