package template

import (
	"structured-docs/internal/schema"
	"time"
)

// Template is a reusable, document-independent field schema
type Template struct {
	ID          uint64           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	UserID      uint64           `json:"user_id"`
	Fields      schema.FieldList `gorm:"type:jsonb" json:"fields"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
