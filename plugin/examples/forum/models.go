package forum

import "github.com/leeforge/pyracms/plugin"

func endpoints(resource string) *plugin.Endpoints {
	base := "/api/forum/" + resource
	return &plugin.Endpoints{
		List:   base,
		Create: base,
		Read:   base + "/:id",
		Update: base + "/:id",
		Delete: base + "/:id",
	}
}

func relation(model string) plugin.Field {
	return plugin.Field{
		Type:     plugin.FieldRelation,
		Required: true,
		Relation: &plugin.Relation{Model: model, Cardinality: plugin.ManyToOne},
	}
}

func dataModels() []plugin.DataModel {
	var (
		id       = plugin.Field{Type: plugin.FieldNumber, Required: true}
		required = plugin.Field{Type: plugin.FieldString, Required: true}
		date     = plugin.Field{Type: plugin.FieldDate}
	)
	return []plugin.DataModel{
		{
			Name: "ForumCategory",
			Fields: map[string]plugin.Field{
				"id":          id,
				"name":        required,
				"description": {Type: plugin.FieldString},
				"slug":        required,
				"order":       {Type: plugin.FieldNumber, Default: 0},
				"createdAt":   date,
			},
			Endpoints: endpoints("categories"),
		},
		{
			Name: "ForumTopic",
			Fields: map[string]plugin.Field{
				"id":         id,
				"title":      required,
				"content":    required,
				"slug":       required,
				"categoryId": relation("ForumCategory"),
				"authorId":   relation("User"),
				"views":      {Type: plugin.FieldNumber, Default: 0},
				"isPinned":   {Type: plugin.FieldBoolean, Default: false},
				"isLocked":   {Type: plugin.FieldBoolean, Default: false},
				"createdAt":  date,
				"updatedAt":  date,
			},
			Endpoints: endpoints("topics"),
		},
		{
			Name: "ForumPost",
			Fields: map[string]plugin.Field{
				"id":        id,
				"content":   required,
				"topicId":   relation("ForumTopic"),
				"authorId":  relation("User"),
				"createdAt": date,
				"updatedAt": date,
			},
			Endpoints: endpoints("posts"),
		},
	}
}
