package plugin

// Metadata identifies a plugin. ID is the key for every registry lookup and
// must not change once the plugin has been registered.
type Metadata struct {
	ID          string `json:"id" validate:"required,plugin_id"`
	Name        string `json:"name" validate:"required"`
	Version     string `json:"version" validate:"required,semver"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	Homepage    string `json:"homepage,omitempty" validate:"omitempty,url"`
}
