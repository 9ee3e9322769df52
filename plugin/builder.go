package plugin

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	validatorV10 "github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	idPattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	modelPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

	validator = newValidator()
)

func newValidator() *validatorV10.Validate {
	v := validatorV10.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("plugin_id", func(fl validatorV10.FieldLevel) bool {
		return idPattern.MatchString(fl.Field().String())
	})
	return v
}

func validationMessage(fe validatorV10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "plugin_id":
		return fmt.Sprintf("must match %s", idPattern.String())
	case "semver":
		return "must be a semantic version"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}

// Build validates def and returns its canonical form: a copy whose empty
// route titles are derived from the route path. The first problem found is
// returned as a *ValidationError.
func Build(def Plugin) (Plugin, error) {
	p := def.Clone()
	b := builder{id: p.Metadata.ID}

	checks := []func(*Plugin) error{
		b.metadata,
		b.routes,
		b.navigation,
		b.dataModels,
		b.apiExtensions,
		b.settings,
	}
	for _, check := range checks {
		if err := check(&p); err != nil {
			return Plugin{}, err
		}
	}

	for i := range p.Routes {
		if p.Routes[i].Title == "" {
			p.Routes[i].Title = titleFromPath(p.Routes[i].Path)
		}
	}
	return p, nil
}

// MustBuild is Build for package-level plugin definitions.
func MustBuild(def Plugin) Plugin {
	p, err := Build(def)
	if err != nil {
		panic(err)
	}
	return p
}

type builder struct {
	id string
}

func (b builder) invalid(field, format string, args ...any) error {
	return &ValidationError{Plugin: b.id, Field: field, Message: fmt.Sprintf(format, args...)}
}

func (b builder) metadata(p *Plugin) error {
	err := validator.Struct(p.Metadata)
	if err == nil {
		return nil
	}
	var fieldErrs validatorV10.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return b.invalid("metadata."+fe.Field(), "%s", validationMessage(fe))
	}
	return b.invalid("metadata", "%v", err)
}

func (b builder) routes(p *Plugin) error {
	seen := make(map[string]bool, len(p.Routes))
	for i, r := range p.Routes {
		field := fmt.Sprintf("routes[%d]", i)
		if !strings.HasPrefix(r.Path, "/") {
			return b.invalid(field+".path", "must start with '/', got %q", r.Path)
		}
		if seen[r.Path] {
			return b.invalid(field+".path", "duplicates %q", r.Path)
		}
		seen[r.Path] = true
		if !r.Component.valid() {
			return b.invalid(field+".component", "is required")
		}
	}
	return nil
}

func (b builder) navigation(p *Plugin) error {
	for i, n := range p.Navigation {
		field := fmt.Sprintf("navigation[%d]", i)
		if n.Label == "" {
			return b.invalid(field+".label", "is required")
		}
		if n.Path == "" {
			return b.invalid(field+".path", "is required")
		}
	}
	return nil
}

func (b builder) dataModels(p *Plugin) error {
	seen := make(map[string]bool, len(p.DataModels))
	for i, m := range p.DataModels {
		if m.Name == "" {
			return b.invalid(fmt.Sprintf("dataModels[%d].name", i), "is required")
		}
		field := fmt.Sprintf("dataModels[%s]", m.Name)
		if !modelPattern.MatchString(m.Name) {
			return b.invalid(field+".name", "must match %s", modelPattern.String())
		}
		if seen[m.Name] {
			return b.invalid(field+".name", "duplicates model %q", m.Name)
		}
		seen[m.Name] = true

		names := make([]string, 0, len(m.Fields))
		for name := range m.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := b.field(field+".fields."+name, name, m.Fields[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b builder) field(path, name string, f Field) error {
	if strings.TrimSpace(name) == "" {
		return b.invalid(path, "field name is empty")
	}
	if !f.Type.Valid() {
		return b.invalid(path+".type", "unknown field type %q", string(f.Type))
	}
	if f.Type == FieldRelation {
		if f.Relation == nil {
			return b.invalid(path+".relation", "is required for relation fields")
		}
		if !modelPattern.MatchString(f.Relation.Model) {
			return b.invalid(path+".relation.model", "must name a model, got %q", f.Relation.Model)
		}
		if !f.Relation.Cardinality.Valid() {
			return b.invalid(path+".relation.type", "unknown cardinality %q", string(f.Relation.Cardinality))
		}
	} else if f.Relation != nil {
		return b.invalid(path+".relation", "is only allowed on relation fields")
	}
	if !defaultMatches(f.Type, f.Default) {
		return b.invalid(path+".default", "%T is not a valid %s", f.Default, f.Type)
	}
	return nil
}

func defaultMatches(t FieldType, v any) bool {
	if v == nil {
		return true
	}
	switch t {
	case FieldString:
		_, ok := v.(string)
		return ok
	case FieldNumber:
		switch reflect.TypeOf(v).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
		return false
	case FieldBoolean:
		_, ok := v.(bool)
		return ok
	case FieldDate:
		switch d := v.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339, d)
			return err == nil
		}
		return false
	default:
		return true
	}
}

func (b builder) apiExtensions(p *Plugin) error {
	seen := make(map[string]bool, len(p.APIExtensions))
	for i, ext := range p.APIExtensions {
		field := fmt.Sprintf("apiExtensions[%d]", i)
		if !strings.HasPrefix(ext.Endpoint, "/") {
			return b.invalid(field+".endpoint", "must start with '/', got %q", ext.Endpoint)
		}
		if !ext.Method.Valid() {
			return b.invalid(field+".method", "unsupported method %q", string(ext.Method))
		}
		key := string(ext.Method) + " " + ext.Endpoint
		if seen[key] {
			return b.invalid(field, "duplicates %s", key)
		}
		seen[key] = true
		if !ext.Handler.valid() {
			return b.invalid(field+".handler", "is required")
		}
	}
	return nil
}

func (b builder) settings(p *Plugin) error {
	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		field := "settings." + k
		if strings.TrimSpace(k) == "" {
			return b.invalid("settings", "setting key is empty")
		}
		s := p.Settings[k]
		if s == nil {
			return b.invalid(field, "is nil")
		}
		switch s.(type) {
		case StringSetting, NumberSetting, BooleanSetting, SelectSetting:
		default:
			return b.invalid(field, "unsupported setting type %T", s)
		}
		if s.SettingLabel() == "" {
			return b.invalid(field+".label", "is required")
		}
		if err := s.check(); err != nil {
			return b.invalid(field, "%v", err)
		}
	}
	return nil
}

// titleFromPath derives a title from the last static path segment:
// "/forum/new-topic" becomes "New Topic".
func titleFromPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" || strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			continue
		}
		words := strings.NewReplacer("-", " ", "_", " ").Replace(seg)
		return cases.Title(language.English).String(words)
	}
	return ""
}
