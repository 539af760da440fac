package schema

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FieldType is the declared type of a field's values. Row values are loosely
// typed (string, number or boolean) and are not validated against it.
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeNumber  FieldType = "number"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
	TypeEmail   FieldType = "email"
	TypeURL     FieldType = "url"
)

// Valid reports whether t is one of the known field types
func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeBoolean, TypeEmail, TypeURL:
		return true
	}
	return false
}

// Field is one named, typed column in a document's or template's schema
type Field struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
	Variants    []string  `json:"variants,omitempty"`
	Formats     []string  `json:"formats,omitempty"`
	Required    bool      `json:"required"`
	Order       int       `json:"order"`
}

// FieldPatch carries a partial field update; nil members are left untouched
type FieldPatch struct {
	Name        *string    `json:"name"`
	Type        *FieldType `json:"type"`
	Description *string    `json:"description"`
	Variants    []string   `json:"variants"`
	Formats     []string   `json:"formats"`
	Required    *bool      `json:"required"`
}

// FieldList is an ordered field schema, stored as a JSONB column
type FieldList []Field

var (
	ErrEmptyFieldName     = errors.New("every field must have a name")
	ErrInvalidFieldType   = errors.New("unknown field type")
	ErrDuplicateFieldName = errors.New("field names must be unique")
)

// Add appends a fresh empty field: new id, empty name, type text, order at
// the end of the list
func (l FieldList) Add() FieldList {
	return append(l, Field{
		ID:    uuid.NewString(),
		Type:  TypeText,
		Order: len(l),
	})
}

// Update merges a partial update into the field with the given id. An
// unknown id is a no-op.
func (l FieldList) Update(id string, patch FieldPatch) FieldList {
	for i := range l {
		if l[i].ID != id {
			continue
		}
		if patch.Name != nil {
			l[i].Name = *patch.Name
		}
		if patch.Type != nil {
			l[i].Type = *patch.Type
		}
		if patch.Description != nil {
			l[i].Description = *patch.Description
		}
		if patch.Variants != nil {
			l[i].Variants = patch.Variants
		}
		if patch.Formats != nil {
			l[i].Formats = patch.Formats
		}
		if patch.Required != nil {
			l[i].Required = *patch.Required
		}
		break
	}
	return l
}

// Remove deletes the field with the given id. Removing the last remaining
// field is a no-op: a document always keeps at least one field, otherwise it
// could reach a state where no data can be entered at all.
func (l FieldList) Remove(id string) FieldList {
	if len(l) <= 1 {
		return l
	}
	for i := range l {
		if l[i].ID == id {
			return append(l[:i:i], l[i+1:]...)
		}
	}
	return l
}

// Reindex re-derives every order value from list position. Applied on every
// save so order stays dense.
func (l FieldList) Reindex() FieldList {
	for i := range l {
		l[i].Order = i
	}
	return l
}

// Validate checks the save-time rules: every field needs a non-empty trimmed
// name, a known type, and names must be unique within the schema
func (l FieldList) Validate() error {
	seen := make(map[string]struct{}, len(l))
	for i := range l {
		name := strings.TrimSpace(l[i].Name)
		if name == "" {
			return ErrEmptyFieldName
		}
		if !l[i].Type.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidFieldType, l[i].Type)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateFieldName, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Clone deep-copies the list. With refreshIDs the copy gets fresh field ids,
// so later edits to either side can't reach the other (template duplication).
func (l FieldList) Clone(refreshIDs bool) FieldList {
	out := make(FieldList, len(l))
	for i, f := range l {
		c := f
		c.Variants = append([]string(nil), f.Variants...)
		c.Formats = append([]string(nil), f.Formats...)
		if refreshIDs {
			c.ID = uuid.NewString()
		}
		out[i] = c
	}
	return out
}

// FindByName returns the field with the given name, nil when absent
func (l FieldList) FindByName(name string) *Field {
	for i := range l {
		if l[i].Name == name {
			return &l[i]
		}
	}
	return nil
}

// Value implements driver.Valuer so a FieldList maps to a JSONB column
func (l FieldList) Value() (driver.Value, error) {
	if l == nil {
		l = FieldList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *FieldList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported field list source %T", src)
}
