package rowset

import (
	"context"
	"errors"
	"fmt"
	"structured-docs/internal/document"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mock implementation of the Storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) FindByID(ctx context.Context, id uint64) (*document.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockStorage) CreateRow(ctx context.Context, row *document.Row) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockStorage) DeleteRow(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func testDocument() *document.Document {
	return &document.Document{
		ID:     1,
		Name:   "Invoices",
		UserID: 7,
		Rows: []document.Row{
			{ID: 10, DocumentID: 1, Data: document.RowData{"a": "persisted"}},
			{ID: 11, DocumentID: 1, Data: document.RowData{"a": "also persisted"}},
		},
	}
}

func newTestReconciler(storage Storage) *Reconciler {
	return NewReconciler(testDocument(), storage, Options{DiscardPendingOnReload: true})
}

// Displayed rows are always persisted then pending, with no id in both sets
func TestRows_PartitionInvariant(t *testing.T) {
	rec := newTestReconciler(new(MockStorage))
	p1 := rec.AddPending()
	p2 := rec.AddPending()

	rows := rec.Rows()

	assert.Len(t, rows, 4)
	assert.Equal(t, StatePersisted, rows[0].State)
	assert.Equal(t, StatePersisted, rows[1].State)
	assert.Equal(t, p1.LocalID, rows[2].LocalID)
	assert.Equal(t, p2.LocalID, rows[3].LocalID)

	seen := map[string]bool{}
	for _, r := range rows {
		key := r.LocalID
		if r.Durable() {
			key = fmt.Sprintf("durable:%d", r.ID)
		}
		assert.False(t, seen[key])
		seen[key] = true
	}
}

func TestAddPending_NoStorageCall(t *testing.T) {
	storage := new(MockStorage)
	rec := newTestReconciler(storage)

	row := rec.AddPending()

	assert.Equal(t, StatePending, row.State)
	assert.NotEmpty(t, row.LocalID)
	assert.Zero(t, row.ID)
	assert.Empty(t, row.Data)
	storage.AssertNotCalled(t, "CreateRow")
}

func TestAddPendingFromFile_CarriesMetadata(t *testing.T) {
	rec := newTestReconciler(new(MockStorage))
	meta := &document.FileMetadata{Filename: "invoice.pdf", FileSize: 123, FileType: "application/pdf"}

	row := rec.AddPendingFromFile(document.RowData{"monto": 99.5}, meta)

	assert.Equal(t, StatePendingFromFile, row.State)
	assert.Equal(t, "invoice.pdf", row.FileMetadata.Filename)
	assert.Equal(t, 99.5, row.Data["monto"])
}

func TestUpdateRowField_TouchesOnlyNamedField(t *testing.T) {
	rec := newTestReconciler(new(MockStorage))
	pending := rec.AddPending()
	rec.UpdateRowField(Ref{LocalID: pending.LocalID}, "a", "x")
	rec.UpdateRowField(Ref{LocalID: pending.LocalID}, "b", "y")

	ok := rec.UpdateRowField(Ref{LocalID: pending.LocalID}, "a", "z")

	assert.True(t, ok)
	rows := rec.Rows()
	last := rows[len(rows)-1]
	assert.Equal(t, "z", last.Data["a"])
	assert.Equal(t, "y", last.Data["b"])
}

func TestUpdateRowField_DurableRow(t *testing.T) {
	rec := newTestReconciler(new(MockStorage))

	ok := rec.UpdateRowField(Ref{ID: 10}, "a", "edited")

	assert.True(t, ok)
	assert.Equal(t, "edited", rec.Rows()[0].Data["a"])
}

// A miss is intentional permissiveness, not an error path
func TestUpdateRowField_UnknownRowIsNoop(t *testing.T) {
	rec := newTestReconciler(new(MockStorage))

	ok := rec.UpdateRowField(Ref{LocalID: "nope"}, "a", "x")

	assert.False(t, ok)
	assert.Len(t, rec.Rows(), 2)
}

func TestCommitRow_PersistsAndRefreshes(t *testing.T) {
	storage := new(MockStorage)
	rec := newTestReconciler(storage)
	pending := rec.AddPending()
	rec.UpdateRowField(Ref{LocalID: pending.LocalID}, "a", "x")

	fresh := testDocument()
	fresh.Rows = append(fresh.Rows, document.Row{
		ID: 12, DocumentID: 1, Data: document.RowData{"a": "x"}, CreatedAt: time.Now(),
	})

	storage.On("CreateRow", mock.Anything, mock.MatchedBy(func(row *document.Row) bool {
		return row.DocumentID == 1 && row.Data["a"] == "x"
	})).Return(nil)
	storage.On("FindByID", mock.Anything, uint64(1)).Return(fresh, nil)

	doc, err := rec.CommitRow(context.Background(), pending.LocalID)

	assert.NoError(t, err)
	assert.Len(t, doc.Rows, 3)
	assert.Equal(t, 0, rec.PendingCount())

	// exactly one durable row carries the committed data, no pending entry
	// with the old local id survives
	for _, r := range rec.Rows() {
		assert.NotEqual(t, pending.LocalID, r.LocalID)
	}
	storage.AssertExpectations(t)
}

func TestCommitRow_StorageFailureKeepsPending(t *testing.T) {
	storage := new(MockStorage)
	rec := newTestReconciler(storage)
	pending := rec.AddPending()

	storage.On("CreateRow", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := rec.CommitRow(context.Background(), pending.LocalID)

	assert.Error(t, err)
	assert.Equal(t, 1, rec.PendingCount())
	storage.AssertNotCalled(t, "FindByID")
}

func TestCommitRow_SecondCallIsNoop(t *testing.T) {
	storage := new(MockStorage)
	rec := newTestReconciler(storage)
	pending := rec.AddPending()

	storage.On("CreateRow", mock.Anything, mock.Anything).Return(nil).Once()
	storage.On("FindByID", mock.Anything, uint64(1)).Return(testDocument(), nil).Once()

	_, err := rec.CommitRow(context.Background(), pending.LocalID)
	assert.NoError(t, err)

	// the pending entry is gone, so a repeat commit inserts nothing
	_, err = rec.CommitRow(context.Background(), pending.LocalID)
	assert.NoError(t, err)
	storage.AssertExpectations(t)
}

func TestCommitRow_RefreshFailureStillReflectsRow(t *testing.T) {
	storage := new(MockStorage)
	rec := newTestReconciler(storage)
	pending := rec.AddPending()
	rec.UpdateRowField(Ref{LocalID: pending.LocalID}, "a", "x")

	storage.On("CreateRow", mock.Anything, mock.Anything).Return(nil)
	storage.On("FindByID", mock.Anything, uint64(1)).Return(nil, errors.New("fetch failed"))

	doc, err := rec.CommitRow(context.Background(), pending.LocalID)

	assert.NoError(t, err)
	assert.Equal(t, 0, rec.PendingCount())
	assert.Len(t, doc.Rows, 3)
}

func TestDeleteRow_PendingIsLocalOnly(t *testing.T) {
	storage := new(MockStorage)
	rec := newTestReconciler(storage)
	pending := rec.AddPending()

	err := rec.DeleteRow(context.Background(), Ref{LocalID: pending.LocalID})

	assert.NoError(t, err)
	assert.Equal(t, 0, rec.PendingCount())
	storage.AssertNotCalled(t, "DeleteRow")
}

func TestDeleteRow_DurableNeedsStorageSuccess(t *testing.T) {
	storage := new(MockStorage)
	rec := newTestReconciler(storage)

	storage.On("DeleteRow", mock.Anything, uint64(10)).Return(nil)

	err := rec.DeleteRow(context.Background(), Ref{ID: 10})

	assert.NoError(t, err)
	assert.Len(t, rec.Rows(), 1)
	storage.AssertExpectations(t)
}

func TestDeleteRow_StorageFailureKeepsRow(t *testing.T) {
	storage := new(MockStorage)
	rec := newTestReconciler(storage)

	storage.On("DeleteRow", mock.Anything, uint64(10)).Return(errors.New("db down"))

	err := rec.DeleteRow(context.Background(), Ref{ID: 10})

	assert.Error(t, err)
	assert.Len(t, rec.Rows(), 2)
}

// Any reload discards pending rows under the default policy, regardless of
// the fresh content
func TestReconcileOnReload_DiscardsPending(t *testing.T) {
	rec := newTestReconciler(new(MockStorage))
	rec.AddPending()
	rec.AddPending()

	fresh := testDocument()
	fresh.Rows = fresh.Rows[:1]

	rows := rec.ReconcileOnReload(fresh)

	assert.Equal(t, 0, rec.PendingCount())
	assert.Len(t, rows, 1)
	assert.Equal(t, uint64(10), rows[0].ID)
}

func TestReconcileOnReload_KeepPolicyRetainsPending(t *testing.T) {
	rec := NewReconciler(testDocument(), new(MockStorage), Options{DiscardPendingOnReload: false})
	rec.AddPending()

	rows := rec.ReconcileOnReload(testDocument())

	assert.Equal(t, 1, rec.PendingCount())
	assert.Len(t, rows, 3)
}
