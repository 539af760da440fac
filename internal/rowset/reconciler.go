package rowset

import (
	"context"
	"structured-docs/internal/document"
	"sync"
)

// Storage is the subset of the document repository the reconciler needs.
// Satisfied by document.DocumentRepository.
type Storage interface {
	FindByID(ctx context.Context, id uint64) (*document.Document, error)
	CreateRow(ctx context.Context, row *document.Row) error
	DeleteRow(ctx context.Context, id uint64) error
}

// Options carries the reconciliation policy knobs
type Options struct {
	// DiscardPendingOnReload drops uncommitted pending rows whenever the
	// document is replaced from storage. Discarding avoids conflicting-edit
	// ambiguity at the cost of losing unsaved rows when a reload races an
	// edit.
	DiscardPendingOnReload bool
}

// Reconciler owns the authoritative in-memory row set for one document in
// one client session: the durable rows as last fetched from storage plus the
// locally created pending rows. Displayed rows are always persisted then
// pending, in that order.
type Reconciler struct {
	mu      sync.Mutex
	doc     *document.Document
	pending []Row
	storage Storage
	opts    Options
}

func NewReconciler(doc *document.Document, storage Storage, opts Options) *Reconciler {
	return &Reconciler{
		doc:     doc,
		storage: storage,
		opts:    opts,
	}
}

// Rows returns persisted rows followed by pending rows. Pending rows sort
// after persisted rows regardless of creation time.
func (r *Reconciler) Rows() []Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rowsLocked()
}

func (r *Reconciler) rowsLocked() []Row {
	out := make([]Row, 0, len(r.doc.Rows)+len(r.pending))
	for _, p := range r.doc.Rows {
		out = append(out, fromPersisted(p))
	}
	out = append(out, r.pending...)
	return out
}

// Document returns the last fetched document state
func (r *Reconciler) Document() *document.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc
}

// AddPending creates an empty-data pending row. No storage call.
func (r *Reconciler) AddPending() Row {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := newPending(r.doc.ID)
	r.pending = append(r.pending, row)
	return row
}

// AddPendingFromFile creates a pending row holding confirmed extraction data
// together with the metadata of the file it came from. No storage call.
func (r *Reconciler) AddPendingFromFile(data document.RowData, meta *document.FileMetadata) Row {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := newPendingFromFile(r.doc.ID, data, meta)
	r.pending = append(r.pending, row)
	return row
}

// UpdateRowField replaces one named value in whichever set holds the row,
// leaving other values untouched. A miss is a no-op, not an error: the UI
// may still reference a row that a reload already replaced.
func (r *Reconciler) UpdateRowField(ref Ref, field string, value any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.pending {
		if r.pending[i].matches(ref) {
			if r.pending[i].Data == nil {
				r.pending[i].Data = document.RowData{}
			}
			r.pending[i].Data[field] = value
			return true
		}
	}

	for i := range r.doc.Rows {
		if ref.LocalID == "" && r.doc.Rows[i].ID == ref.ID {
			if r.doc.Rows[i].Data == nil {
				r.doc.Rows[i].Data = document.RowData{}
			}
			r.doc.Rows[i].Data[field] = value
			return true
		}
	}

	return false
}

// CommitRow persists the pending row with the given local id, then replaces
// the whole local document state with a fresh fetch so storage-side defaults
// and timestamps are reflected. On storage failure the pending row stays in
// place and nothing else changes.
func (r *Reconciler) CommitRow(ctx context.Context, localID string) (*document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.pending {
		if r.pending[i].LocalID == localID {
			idx = i
			break
		}
	}
	if idx < 0 {
		// already committed or never existed; nothing to do
		return r.doc, nil
	}

	row := &document.Row{
		DocumentID:   r.doc.ID,
		Data:         r.pending[idx].Data,
		FileMetadata: r.pending[idx].FileMetadata,
	}
	if err := r.storage.CreateRow(ctx, row); err != nil {
		return nil, err
	}

	// The row is durable now, so the pending entry goes regardless of how
	// the refresh below fares.
	r.pending = append(r.pending[:idx:idx], r.pending[idx+1:]...)

	fresh, err := r.storage.FindByID(ctx, r.doc.ID)
	if err != nil {
		// Refresh failed after a successful create. Reflect the created row
		// locally instead of erroring, or the caller would retry the commit
		// and insert a duplicate.
		r.doc.Rows = append(r.doc.Rows, *row)
		return r.doc, nil
	}

	r.doc = fresh
	return r.doc, nil
}

// SyncDurableRow replaces the local copy of a durable row after a confirmed
// storage update
func (r *Reconciler) SyncDurableRow(updated *document.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.doc.Rows {
		if r.doc.Rows[i].ID == updated.ID {
			r.doc.Rows[i] = *updated
			return
		}
	}
}

// DeleteRow removes a row. Pending rows are a pure local removal; durable
// rows require the storage delete to succeed first, so a failure leaves the
// local set unmodified.
func (r *Reconciler) DeleteRow(ctx context.Context, ref Ref) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ref.LocalID != "" {
		for i := range r.pending {
			if r.pending[i].LocalID == ref.LocalID {
				r.pending = append(r.pending[:i:i], r.pending[i+1:]...)
				return nil
			}
		}
		return nil
	}

	if err := r.storage.DeleteRow(ctx, ref.ID); err != nil {
		return err
	}

	for i := range r.doc.Rows {
		if r.doc.Rows[i].ID == ref.ID {
			r.doc.Rows = append(r.doc.Rows[:i:i], r.doc.Rows[i+1:]...)
			break
		}
	}
	return nil
}

// ReconcileOnReload replaces the durable row set with freshly fetched state.
// Under the default policy pending rows are discarded rather than three-way
// merged; see Options.
func (r *Reconciler) ReconcileOnReload(fresh *document.Document) []Row {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.doc = fresh
	if r.opts.DiscardPendingOnReload {
		r.pending = nil
	}
	return r.rowsLocked()
}

// PendingCount reports how many uncommitted rows the session holds
func (r *Reconciler) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
