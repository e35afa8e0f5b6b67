// Package schema maps the logical type and property names workflows are
// written against to the opaque identifiers the backing store uses for one
// organization. A Resolver is immutable once built; selecting a different
// organization means building a new one and dropping the old.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"casegraph/internal/graph"
)

// Document is the on-disk form of an organization's schema bindings.
type Document struct {
	OrganizationID string            `yaml:"organization_id"`
	Collections    map[string]string `yaml:"collections"`
	Properties     map[string]string `yaml:"properties"`
}

// Resolver holds the bidirectional name/identifier tables for one
// organization. All lookups are plain table reads; a miss means the schema
// a workflow assumes is absent from this organization.
type Resolver struct {
	orgID         string
	collections   map[string]graph.CollectionID
	properties    map[string]graph.PropertyID
	propertyNames map[graph.PropertyID]string
}

// NewResolver builds a resolver from a validated document.
func NewResolver(doc Document) (*Resolver, error) {
	if doc.OrganizationID == "" {
		return nil, fmt.Errorf("%w: missing organization_id", ErrInvalidDocument)
	}
	if len(doc.Collections) == 0 {
		return nil, fmt.Errorf("%w: no collections bound", ErrInvalidDocument)
	}

	r := &Resolver{
		orgID:         doc.OrganizationID,
		collections:   make(map[string]graph.CollectionID, len(doc.Collections)),
		properties:    make(map[string]graph.PropertyID, len(doc.Properties)),
		propertyNames: make(map[graph.PropertyID]string, len(doc.Properties)),
	}
	for name, id := range doc.Collections {
		if id == "" {
			return nil, fmt.Errorf("%w: empty id for collection %q", ErrInvalidDocument, name)
		}
		r.collections[name] = graph.CollectionID(id)
	}
	for name, id := range doc.Properties {
		if id == "" {
			return nil, fmt.Errorf("%w: empty id for property %q", ErrInvalidDocument, name)
		}
		pid := graph.PropertyID(id)
		if prior, ok := r.propertyNames[pid]; ok {
			return nil, fmt.Errorf("%w: property id %q bound to both %q and %q", ErrInvalidDocument, id, prior, name)
		}
		r.properties[name] = pid
		r.propertyNames[pid] = name
	}
	return r, nil
}

// LoadResolver reads a YAML schema document and builds a resolver from it.
func LoadResolver(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema document: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	return NewResolver(doc)
}

// OrganizationID returns the organization these bindings belong to.
func (r *Resolver) OrganizationID() string {
	return r.orgID
}

// Collection resolves a logical type name to its store collection id.
func (r *Resolver) Collection(name string) (graph.CollectionID, error) {
	id, ok := r.collections[name]
	if !ok {
		return "", fmt.Errorf("%w: %q (org %s)", ErrUnknownCollection, name, r.orgID)
	}
	return id, nil
}

// Property resolves a logical property name to its store property id.
func (r *Resolver) Property(name string) (graph.PropertyID, error) {
	id, ok := r.properties[name]
	if !ok {
		return "", fmt.Errorf("%w: %q (org %s)", ErrUnknownProperty, name, r.orgID)
	}
	return id, nil
}

// PropertyName resolves a store property id back to its logical name.
func (r *Resolver) PropertyName(id graph.PropertyID) (string, error) {
	name, ok := r.propertyNames[id]
	if !ok {
		return "", fmt.Errorf("%w: %q (org %s)", ErrUnknownPropertyID, id, r.orgID)
	}
	return name, nil
}
