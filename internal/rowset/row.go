package rowset

import (
	"structured-docs/internal/document"
	"time"

	"github.com/google/uuid"
)

// State is the explicit row lifecycle tag. Lifecycle used to be encoded in
// an id prefix convention; an explicit variant removes the need to parse
// identifiers to learn whether a row is durable.
type State string

const (
	// StatePersisted rows carry a durable id issued by storage
	StatePersisted State = "persisted"
	// StatePending rows were created locally and never saved
	StatePending State = "pending"
	// StatePendingFromFile rows hold confirmed extraction data awaiting commit
	StatePendingFromFile State = "pending_from_file"
)

// Row is one entry of a document's displayed row set. Persisted rows have a
// durable ID, pending rows a transient LocalID; never both.
type Row struct {
	State        State                  `json:"state"`
	ID           uint64                 `json:"id,omitempty"`
	LocalID      string                 `json:"local_id,omitempty"`
	DocumentID   uint64                 `json:"document_id"`
	Data         document.RowData       `json:"data"`
	FileMetadata *document.FileMetadata `json:"file_metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Durable reports whether the row has been confirmed by storage
func (r Row) Durable() bool {
	return r.State == StatePersisted
}

func fromPersisted(p document.Row) Row {
	return Row{
		State:        StatePersisted,
		ID:           p.ID,
		DocumentID:   p.DocumentID,
		Data:         p.Data,
		FileMetadata: p.FileMetadata,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func newPending(docID uint64) Row {
	now := time.Now().UTC()
	return Row{
		State:      StatePending,
		LocalID:    uuid.NewString(),
		DocumentID: docID,
		Data:       document.RowData{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func newPendingFromFile(docID uint64, data document.RowData, meta *document.FileMetadata) Row {
	now := time.Now().UTC()
	if data == nil {
		data = document.RowData{}
	}
	return Row{
		State:        StatePendingFromFile,
		LocalID:      uuid.NewString(),
		DocumentID:   docID,
		Data:         data,
		FileMetadata: meta,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Ref addresses a row by either its durable id or its transient local id
type Ref struct {
	ID      uint64
	LocalID string
}

func (r Row) matches(ref Ref) bool {
	if ref.LocalID != "" {
		return r.LocalID == ref.LocalID
	}
	return r.Durable() && r.ID == ref.ID
}
