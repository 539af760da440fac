package document

import (
	"context"
	"structured-docs/redis"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, userID uint64, doc *Document) error {
	args := m.Called(ctx, userID, doc)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uint64) (*Document, error) {
	args := m.Called(ctx, id)
	if doc, ok := args.Get(0).(*Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]Document, DocumentsMeta, error) {
	args := m.Called(ctx, userID, page, pageSize)
	docs, _ := args.Get(0).([]Document)
	meta, _ := args.Get(1).(DocumentsMeta)
	return docs, meta, args.Error(2)
}

func (m *MockRepository) Update(ctx context.Context, doc *Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateRow(ctx context.Context, row *Row) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockRepository) UpdateRowData(ctx context.Context, id uint64, data RowData) (*Row, error) {
	args := m.Called(ctx, id, data)
	if row, ok := args.Get(0).(*Row); ok {
		return row, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) DeleteRow(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type recordingInvalidator struct {
	dropped [][2]uint64
}

func (r *recordingInvalidator) Drop(userID, docID uint64) {
	r.dropped = append(r.dropped, [2]uint64{userID, docID})
}

// Deleting a document must also forget its live row sessions, or they would
// keep answering with the dead document's rows
func TestDeleteDocument_DropsRowSession(t *testing.T) {
	repository := new(MockRepository)
	sessions := &recordingInvalidator{}
	service := NewService(repository, redis.NewCache(), sessions)

	doc := &Document{ID: 42, Name: "Invoices", UserID: 1}
	repository.On("FindByID", mock.Anything, uint64(42)).Return(doc, nil)
	repository.On("Delete", mock.Anything, uint64(42)).Return(nil)

	err := service.DeleteDocument(context.Background(), 42, 1)

	assert.NoError(t, err)
	assert.Equal(t, [][2]uint64{{1, 42}}, sessions.dropped)
	repository.AssertExpectations(t)
}

// A failed delete leaves the session alone, the rows are still real
func TestDeleteDocument_KeepsSessionOnStorageFailure(t *testing.T) {
	repository := new(MockRepository)
	sessions := &recordingInvalidator{}
	service := NewService(repository, redis.NewCache(), sessions)

	doc := &Document{ID: 42, Name: "Invoices", UserID: 1}
	repository.On("FindByID", mock.Anything, uint64(42)).Return(doc, nil)
	repository.On("Delete", mock.Anything, uint64(42)).Return(assert.AnError)

	err := service.DeleteDocument(context.Background(), 42, 1)

	assert.Error(t, err)
	assert.Empty(t, sessions.dropped)
}
