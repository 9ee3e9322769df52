package plugin

import "testing"

func forumSettings() map[string]Setting {
	return map[string]Setting{
		"postsPerPage":        NumberSetting{Label: "Posts per page", Default: 20},
		"allowAnonymousPosts": BooleanSetting{Label: "Allow anonymous posts", Default: false},
		"theme":               SelectSetting{Label: "Theme", Options: []string{"light", "dark"}, Default: "light"},
		"tagline":             StringSetting{Label: "Tagline", Default: "Talk"},
	}
}

func TestSettings_Defaults(t *testing.T) {
	s := NewSettings(forumSettings(), nil)

	if got := s.GetInt("postsPerPage", 0); got != 20 {
		t.Errorf("GetInt(postsPerPage) = %d, want 20", got)
	}
	if got := s.GetBool("allowAnonymousPosts", true); got {
		t.Error("GetBool(allowAnonymousPosts) should use the declared default false")
	}
	if got := s.GetString("theme", ""); got != "light" {
		t.Errorf("GetString(theme) = %q, want light", got)
	}
	if got := s.GetString("missing", "fallback"); got != "fallback" {
		t.Errorf("GetString(missing) = %q, want fallback", got)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestSettings_OverridesAreCaseInsensitiveAndCoerced(t *testing.T) {
	s := NewSettings(forumSettings(), map[string]any{
		"postsperpage":        "50",
		"ALLOWANONYMOUSPOSTS": "true",
		"theme":               "dark",
		"extra":               7,
	})

	if got := s.GetFloat("postsPerPage", 0); got != 50 {
		t.Errorf("GetFloat(postsPerPage) = %v, want 50", got)
	}
	if !s.GetBool("allowAnonymousPosts", false) {
		t.Error("GetBool(allowAnonymousPosts) should be overridden to true")
	}
	if got := s.GetString("theme", ""); got != "dark" {
		t.Errorf("GetString(theme) = %q, want dark", got)
	}
	if got := s.GetInt("extra", 0); got != 7 {
		t.Errorf("GetInt(extra) = %d, want 7", got)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestSettings_BadOverrideFallsBackToDefault(t *testing.T) {
	s := NewSettings(forumSettings(), map[string]any{
		"postsPerPage": "lots",
		"theme":        "neon",
	})

	if got := s.GetInt("postsPerPage", 0); got != 20 {
		t.Errorf("GetInt(postsPerPage) = %d, want default 20", got)
	}
	if got := s.GetString("theme", ""); got != "light" {
		t.Errorf("GetString(theme) = %q, want default light", got)
	}
	if err := s.Validate(); err == nil {
		t.Error("Validate should report the bad overrides")
	}
}

func TestSettings_AllAndBind(t *testing.T) {
	s := NewSettings(forumSettings(), map[string]any{"postsperpage": 30})

	all := s.All()
	if _, dup := all["postsperpage"]; dup {
		t.Error("All should fold an override into its declared key")
	}
	if all["postsPerPage"] != float64(30) {
		t.Errorf("All[postsPerPage] = %v, want 30", all["postsPerPage"])
	}

	var target struct {
		PostsPerPage int    `json:"postsPerPage"`
		Theme        string `json:"theme"`
	}
	if err := s.Bind(&target); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if target.PostsPerPage != 30 || target.Theme != "light" {
		t.Errorf("Bind = %+v", target)
	}
}

func TestAppContext_Normalize(t *testing.T) {
	p := Plugin{Metadata: Metadata{ID: "forum"}, Settings: forumSettings()}

	var nilCtx *AppContext
	app := nilCtx.Normalize(p)
	if app.PluginID != "forum" || app.Logger == nil || app.Services == nil {
		t.Fatalf("Normalize(nil) = %+v", app)
	}
	if got := app.Settings.GetInt("postsPerPage", 0); got != 20 {
		t.Errorf("settings default = %d, want 20", got)
	}

	partial := (&AppContext{PluginID: "other"}).Normalize(p)
	if partial.PluginID != "other" || partial.Logger == nil {
		t.Errorf("Normalize(partial) = %+v", partial)
	}
}
