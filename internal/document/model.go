package document

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"structured-docs/internal/schema"
	"time"
)

// UnnamedDocument is the placeholder name a freshly created document carries
// until the user names it. Some operations (saving the schema as a template)
// are blocked while the document still has this name.
const UnnamedDocument = "Untitled document"

// RowData maps field name to a loosely typed value (string, number or
// boolean depending on the field type). Stored as a JSONB column.
type RowData map[string]any

// Value implements driver.Valuer
func (d RowData) Value() (driver.Value, error) {
	if d == nil {
		d = RowData{}
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *RowData) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("unsupported row data source %T", src)
}

// FileMetadata describes the uploaded file a row originated from
type FileMetadata struct {
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"file_size"`
	FileType   string    `json:"file_type"`
	UploadDate time.Time `json:"upload_date"`
	FileURL    string    `json:"file_url,omitempty"`
}

// Value implements driver.Valuer
func (m FileMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *FileMetadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported file metadata source %T", src)
}

// Row is one durable record of field-name-to-value data. Rows that are not
// yet persisted never appear here, they live in the rowset package with an
// explicit pending state.
type Row struct {
	ID           uint64        `json:"id"`
	DocumentID   uint64        `json:"document_id"`
	Data         RowData       `gorm:"type:jsonb" json:"data"`
	FileMetadata *FileMetadata `gorm:"type:jsonb" json:"file_metadata,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Document is a named collection of schema-defined rows owned by a user
type Document struct {
	ID          uint64           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	UserID      uint64           `json:"user_id"`
	Fields      schema.FieldList `gorm:"type:jsonb" json:"fields"`
	Rows        []Row            `gorm:"constraint:OnDelete:CASCADE" json:"rows"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Named reports whether the user has given the document a real name
func (d *Document) Named() bool {
	return d.Name != "" && d.Name != UnnamedDocument
}
