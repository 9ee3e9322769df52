// Package forum is a reference module: a discussion forum with categories,
// topics and posts. It contributes pages, navigation, data models, settings
// and one API extension, and publishes its resolved settings as a service
// while active.
package forum

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"sync"

	"github.com/leeforge/pyracms/plugin"
	"go.uber.org/zap"
)

const ID = "forum"

// SettingsService is the service key the forum publishes while active.
var SettingsService = plugin.ServiceKey(ID, "settings")

// Settings is the forum's resolved configuration.
type Settings struct {
	PostsPerPage        int  `json:"postsPerPage"`
	AllowAnonymousPosts bool `json:"allowAnonymousPosts"`
	ModerationEnabled   bool `json:"moderationEnabled"`
}

type module struct {
	mu       sync.RWMutex
	settings *Settings
}

// New returns the forum plugin. Every call returns an independent instance.
func New() plugin.Plugin {
	m := &module{}
	return plugin.MustBuild(plugin.Plugin{
		Metadata: plugin.Metadata{
			ID:          ID,
			Name:        "Forum Module",
			Version:     "1.0.0",
			Description: "Discussion forum with topics, posts, and categories",
			Author:      "PyraCMS",
		},
		Routes: []plugin.Route{
			{Path: "/forum", Title: "Forum", Component: page("Forum")},
			{Path: "/forum/topic/:id", Title: "Topic", Component: page("Topic")},
			{Path: "/forum/new-topic", RequiresAuth: true, Component: page("New Topic")},
		},
		Navigation: []plugin.NavItem{
			{Label: "Forum", Path: "/forum", Icon: "ForumOutlined", Order: 10},
		},
		DataModels: dataModels(),
		APIExtensions: []plugin.APIExtension{
			{Endpoint: "/api/forum/settings", Method: plugin.MethodGet, Handler: plugin.Value[plugin.HandlerFunc](m.handleSettings)},
		},
		Settings: map[string]plugin.Setting{
			"postsPerPage":        plugin.NumberSetting{Label: "Posts per page", Default: 20},
			"allowAnonymousPosts": plugin.BooleanSetting{Label: "Allow anonymous posts", Default: false},
			"moderationEnabled":   plugin.BooleanSetting{Label: "Enable moderation", Default: true},
		},
		Hooks: plugin.Hooks{
			OnInstall:    m.install,
			OnActivate:   m.activate,
			OnDeactivate: m.deactivate,
		},
	})
}

func (m *module) install(ctx context.Context, app *plugin.AppContext) error {
	app.Logger.Info("forum plugin installed")
	return nil
}

func (m *module) activate(ctx context.Context, app *plugin.AppContext) error {
	var s Settings
	if err := app.Settings.Bind(&s); err != nil {
		return fmt.Errorf("resolve forum settings: %w", err)
	}
	if err := app.Services.Register(SettingsService, &s); err != nil {
		return err
	}

	m.mu.Lock()
	m.settings = &s
	m.mu.Unlock()

	app.Logger.Info("forum plugin activated",
		zap.Int("postsPerPage", s.PostsPerPage),
		zap.Bool("moderationEnabled", s.ModerationEnabled))
	return nil
}

func (m *module) deactivate(ctx context.Context, app *plugin.AppContext) error {
	app.Services.Unregister(SettingsService)

	m.mu.Lock()
	m.settings = nil
	m.mu.Unlock()

	app.Logger.Info("forum plugin deactivated")
	return nil
}

func (m *module) handleSettings(ctx context.Context, r *http.Request) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return nil, fmt.Errorf("forum is not active")
	}
	return *m.settings, nil
}

// page is a placeholder shell; the SPA renders the real page.
func page(title string) *plugin.Lazy[http.Handler] {
	return plugin.NewLazy(func(ctx context.Context) (http.Handler, error) {
		body := fmt.Sprintf("<!doctype html><title>%[1]s</title><div id=\"app\" data-page=\"%[1]s\"></div>", html.EscapeString(title))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(body))
		}), nil
	})
}
