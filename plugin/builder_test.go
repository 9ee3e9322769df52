package plugin

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func okHandler() *Lazy[http.Handler] {
	return Value[http.Handler](http.NotFoundHandler())
}

func okAPI() *Lazy[HandlerFunc] {
	return Value[HandlerFunc](func(ctx context.Context, r *http.Request) (any, error) { return "ok", nil })
}

func validDefinition() Plugin {
	return Plugin{
		Metadata: Metadata{ID: "blog", Name: "Blog", Version: "1.2.0", Homepage: "https://example.com/blog"},
		Routes: []Route{
			{Path: "/blog", Component: okHandler()},
			{Path: "/blog/post/:slug", Component: okHandler()},
			{Path: "/blog/new-post", Component: okHandler(), Title: "Write", RequiresAuth: true},
		},
		Navigation: []NavItem{{Label: "Blog", Path: "/blog", Order: 3}},
		DataModels: []DataModel{
			{Name: "BlogPost", Fields: map[string]Field{
				"title":       {Type: FieldString, Required: true},
				"views":       {Type: FieldNumber, Default: 0},
				"publishedAt": {Type: FieldDate, Default: "2024-01-02T03:04:05Z"},
				"authorId":    {Type: FieldRelation, Relation: &Relation{Model: "User", Cardinality: ManyToOne}},
			}},
		},
		APIExtensions: []APIExtension{{Endpoint: "/api/blog/stats", Method: MethodGet, Handler: okAPI()}},
		Settings: map[string]Setting{
			"perPage": NumberSetting{Label: "Per page", Default: 10},
			"layout":  SelectSetting{Label: "Layout", Options: []string{"grid", "list"}, Default: "list"},
		},
	}
}

func TestBuild_Valid(t *testing.T) {
	p, err := Build(validDefinition())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantTitles := []string{"Blog", "Post", "Write"}
	for i, want := range wantTitles {
		if got := p.Routes[i].Title; got != want {
			t.Errorf("Routes[%d].Title = %q, want %q", i, got, want)
		}
	}
}

func TestBuild_DoesNotMutateDefinition(t *testing.T) {
	def := validDefinition()
	if _, err := Build(def); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if def.Routes[0].Title != "" {
		t.Errorf("definition title was rewritten to %q", def.Routes[0].Title)
	}
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Plugin)
		field  string
	}{
		{"missing id", func(p *Plugin) { p.Metadata.ID = "" }, "metadata.id"},
		{"bad id", func(p *Plugin) { p.Metadata.ID = "Blog Plugin" }, "metadata.id"},
		{"dotted id", func(p *Plugin) { p.Metadata.ID = "acme.blog" }, "metadata.id"},
		{"missing name", func(p *Plugin) { p.Metadata.Name = "" }, "metadata.name"},
		{"bad version", func(p *Plugin) { p.Metadata.Version = "v1" }, "metadata.version"},
		{"bad homepage", func(p *Plugin) { p.Metadata.Homepage = "not a url" }, "metadata.homepage"},
		{"relative route", func(p *Plugin) { p.Routes[0].Path = "blog" }, "routes[0].path"},
		{"duplicate route", func(p *Plugin) { p.Routes[1].Path = "/blog" }, "routes[1].path"},
		{"missing component", func(p *Plugin) { p.Routes[2].Component = nil }, "routes[2].component"},
		{"nav label", func(p *Plugin) { p.Navigation[0].Label = "" }, "navigation[0].label"},
		{"nav path", func(p *Plugin) { p.Navigation[0].Path = "" }, "navigation[0].path"},
		{"model name", func(p *Plugin) { p.DataModels[0].Name = "" }, "dataModels[0].name"},
		{"duplicate model", func(p *Plugin) {
			p.DataModels = append(p.DataModels, DataModel{Name: "BlogPost"})
		}, "dataModels[BlogPost].name"},
		{"field type", func(p *Plugin) {
			p.DataModels[0].Fields["title"] = Field{Type: "text"}
		}, "dataModels[BlogPost].fields.title.type"},
		{"relation missing", func(p *Plugin) {
			p.DataModels[0].Fields["authorId"] = Field{Type: FieldRelation}
		}, "dataModels[BlogPost].fields.authorId.relation"},
		{"relation target", func(p *Plugin) {
			p.DataModels[0].Fields["authorId"] = Field{Type: FieldRelation, Relation: &Relation{Model: "", Cardinality: ManyToOne}}
		}, "dataModels[BlogPost].fields.authorId.relation.model"},
		{"relation cardinality", func(p *Plugin) {
			p.DataModels[0].Fields["authorId"] = Field{Type: FieldRelation, Relation: &Relation{Model: "User", Cardinality: "many"}}
		}, "dataModels[BlogPost].fields.authorId.relation.type"},
		{"relation on scalar", func(p *Plugin) {
			p.DataModels[0].Fields["title"] = Field{Type: FieldString, Relation: &Relation{Model: "User", Cardinality: OneToOne}}
		}, "dataModels[BlogPost].fields.title.relation"},
		{"number default", func(p *Plugin) {
			p.DataModels[0].Fields["views"] = Field{Type: FieldNumber, Default: "zero"}
		}, "dataModels[BlogPost].fields.views.default"},
		{"date default", func(p *Plugin) {
			p.DataModels[0].Fields["publishedAt"] = Field{Type: FieldDate, Default: "yesterday"}
		}, "dataModels[BlogPost].fields.publishedAt.default"},
		{"api endpoint", func(p *Plugin) { p.APIExtensions[0].Endpoint = "stats" }, "apiExtensions[0].endpoint"},
		{"api method", func(p *Plugin) { p.APIExtensions[0].Method = "TRACE" }, "apiExtensions[0].method"},
		{"api handler", func(p *Plugin) { p.APIExtensions[0].Handler = nil }, "apiExtensions[0].handler"},
		{"api duplicate", func(p *Plugin) {
			p.APIExtensions = append(p.APIExtensions, APIExtension{Endpoint: "/api/blog/stats", Method: MethodGet, Handler: okAPI()})
		}, "apiExtensions[1]"},
		{"setting nil", func(p *Plugin) { p.Settings["broken"] = nil }, "settings.broken"},
		{"setting label", func(p *Plugin) { p.Settings["perPage"] = NumberSetting{Default: 10} }, "settings.perPage.label"},
		{"setting typed nil pointer", func(p *Plugin) { p.Settings["x"] = (*StringSetting)(nil) }, "settings.x"},
		{"setting pointer variant", func(p *Plugin) {
			p.Settings["x"] = &SelectSetting{Label: "Layout", Options: []string{"grid"}, Default: "grid"}
		}, "settings.x"},
		{"setting nil select pointer", func(p *Plugin) { p.Settings["x"] = (*SelectSetting)(nil) }, "settings.x"},
		{"select default", func(p *Plugin) {
			p.Settings["layout"] = SelectSetting{Label: "Layout", Options: []string{"grid"}, Default: "list"}
		}, "settings.layout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)

			_, err := Build(def)
			if err == nil {
				t.Fatal("Build should fail")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error is %T, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q (%v)", ve.Field, tt.field, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("errors.Is(err, ErrValidation) should hold")
			}
		})
	}
}

func TestBuild_DateDefaultAcceptsTime(t *testing.T) {
	def := validDefinition()
	def.DataModels[0].Fields["publishedAt"] = Field{Type: FieldDate, Default: time.Now()}
	if _, err := Build(def); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
}

func TestMustBuildPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("MustBuild should panic on an invalid definition")
		}
	}()
	MustBuild(Plugin{})
}

func TestTitleFromPath(t *testing.T) {
	tests := map[string]string{
		"/forum":            "Forum",
		"/forum/new-topic":  "New Topic",
		"/forum/topic/:id":  "Topic",
		"/admin/user_roles": "User Roles",
		"/":                 "",
		"/:id":              "",
	}
	for path, want := range tests {
		if got := titleFromPath(path); got != want {
			t.Errorf("titleFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
