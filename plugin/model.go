package plugin

import "fmt"

// FieldType is the storage type of a data model field.
type FieldType string

const (
	FieldString   FieldType = "string"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
	FieldJSON     FieldType = "json"
	FieldRelation FieldType = "relation"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldNumber, FieldBoolean, FieldDate, FieldJSON, FieldRelation:
		return true
	default:
		return false
	}
}

func (t FieldType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown field type %q", string(t))
	}
	return []byte(t), nil
}

func (t *FieldType) UnmarshalText(text []byte) error {
	v := FieldType(text)
	if !v.Valid() {
		return fmt.Errorf("unknown field type %q", string(text))
	}
	*t = v
	return nil
}

// Cardinality describes how many records sit on each side of a relation.
type Cardinality string

const (
	OneToOne   Cardinality = "one-to-one"
	OneToMany  Cardinality = "one-to-many"
	ManyToOne  Cardinality = "many-to-one"
	ManyToMany Cardinality = "many-to-many"
)

func (c Cardinality) Valid() bool {
	switch c {
	case OneToOne, OneToMany, ManyToOne, ManyToMany:
		return true
	default:
		return false
	}
}

func (c Cardinality) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown cardinality %q", string(c))
	}
	return []byte(c), nil
}

func (c *Cardinality) UnmarshalText(text []byte) error {
	v := Cardinality(text)
	if !v.Valid() {
		return fmt.Errorf("unknown cardinality %q", string(text))
	}
	*c = v
	return nil
}

// Relation points a field at another model, possibly one owned by the host
// or another plugin.
type Relation struct {
	Model       string      `json:"model"`
	Cardinality Cardinality `json:"type"`
}

type Field struct {
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Default  any       `json:"default,omitempty"`
	Relation *Relation `json:"relation,omitempty"`
}

// Endpoints are REST path templates for a model.
type Endpoints struct {
	List   string `json:"list,omitempty"`
	Create string `json:"create,omitempty"`
	Read   string `json:"read,omitempty"`
	Update string `json:"update,omitempty"`
	Delete string `json:"delete,omitempty"`
}

// DataModel is a schema contributed by a plugin. Names are unique within one
// plugin only.
type DataModel struct {
	Name      string           `json:"name"`
	Fields    map[string]Field `json:"fields"`
	Endpoints *Endpoints       `json:"endpoints,omitempty"`
}

func (m DataModel) clone() DataModel {
	if m.Fields != nil {
		fields := make(map[string]Field, len(m.Fields))
		for name, f := range m.Fields {
			if f.Relation != nil {
				rel := *f.Relation
				f.Relation = &rel
			}
			fields[name] = f
		}
		m.Fields = fields
	}
	if m.Endpoints != nil {
		ep := *m.Endpoints
		m.Endpoints = &ep
	}
	return m
}
