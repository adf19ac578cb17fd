package syncengine

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"contractkit/internal/core"
)

// workspaceFileDoc is the typed shape of the reserved root workspace.yaml
// file, decoded the same way odcs.document is: a named struct rather
// than a map[string]any walk.
type workspaceFileDoc struct {
	Name string `yaml:"name"`
}

func decodeYAMLName(data []byte) (string, error) {
	var doc workspaceFileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", &core.ParseError{Format: "workspace.yaml", Detail: "invalid YAML", Err: err}
	}
	if doc.Name == "" {
		return "", &core.ValidationError{Detail: "workspace.yaml: name is required"}
	}
	return doc.Name, nil
}

// relationshipDoc is one entry of the reserved root relationships.yaml
// file's flat list.
type relationshipDoc struct {
	ID                string            `yaml:"id"`
	Name              string            `yaml:"name"`
	FromTableID       string            `yaml:"fromTableId"`
	ToTableID         string            `yaml:"toTableId"`
	Cardinality       string            `yaml:"cardinality"`
	FromOptional      bool              `yaml:"fromOptional"`
	ToOptional        bool              `yaml:"toOptional"`
	ETLJob            string            `yaml:"etlJob"`
	ForeignKeyColumns []string          `yaml:"foreignKeyColumns"`
	ReferencedColumns []string          `yaml:"referencedColumns"`
	VisualMetadata    map[string]any    `yaml:"visualMetadata"`
}

type relationshipsFileDoc struct {
	Relationships []relationshipDoc `yaml:"relationships"`
}

func decodeYAMLRelationships(data []byte) ([]*core.Relationship, error) {
	var doc relationshipsFileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &core.ParseError{Format: "relationships.yaml", Detail: "invalid YAML", Err: err}
	}

	rels := make([]*core.Relationship, 0, len(doc.Relationships))
	for i, r := range doc.Relationships {
		id := uuid.New()
		if r.ID != "" {
			parsed, err := uuid.Parse(r.ID)
			if err != nil {
				return nil, &core.ValidationError{Detail: fmt.Sprintf("relationships.yaml entry %d: invalid id %q", i, r.ID)}
			}
			id = parsed
		}
		from, err := uuid.Parse(r.FromTableID)
		if err != nil {
			return nil, &core.ValidationError{Detail: fmt.Sprintf("relationships.yaml entry %d: invalid fromTableId %q", i, r.FromTableID)}
		}
		to, err := uuid.Parse(r.ToTableID)
		if err != nil {
			return nil, &core.ValidationError{Detail: fmt.Sprintf("relationships.yaml entry %d: invalid toTableId %q", i, r.ToTableID)}
		}
		rels = append(rels, &core.Relationship{
			ID: id, Name: r.Name, FromTableID: from, ToTableID: to,
			Cardinality: core.Cardinality(r.Cardinality), FromOptional: r.FromOptional,
			ToOptional: r.ToOptional, ETLJob: r.ETLJob,
			ForeignKeyColumns: r.ForeignKeyColumns, ReferencedColumns: r.ReferencedColumns,
			VisualMetadata: r.VisualMetadata,
		})
	}
	return rels, nil
}
