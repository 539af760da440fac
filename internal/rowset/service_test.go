package rowset

import (
	"context"
	"structured-docs/internal/document"
	"structured-docs/internal/errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, userID uint64, doc *document.Document) error {
	args := m.Called(ctx, userID, doc)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uint64) (*document.Document, error) {
	args := m.Called(ctx, id)
	if doc, ok := args.Get(0).(*document.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]document.Document, document.DocumentsMeta, error) {
	args := m.Called(ctx, userID, page, pageSize)
	docs, _ := args.Get(0).([]document.Document)
	meta, _ := args.Get(1).(document.DocumentsMeta)
	return docs, meta, args.Error(2)
}

func (m *MockRepository) Update(ctx context.Context, doc *document.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateRow(ctx context.Context, row *document.Row) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockRepository) UpdateRowData(ctx context.Context, id uint64, data document.RowData) (*document.Row, error) {
	args := m.Called(ctx, id, data)
	if row, ok := args.Get(0).(*document.Row); ok {
		return row, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) DeleteRow(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// A reload that finds the document gone must forget the session, otherwise
// the dead document's rows stay reachable through it
func TestReload_DocumentGoneDropsSession(t *testing.T) {
	repository := new(MockRepository)
	registry := NewRegistry()
	service := NewService(registry, repository, Options{DiscardPendingOnReload: true})

	repository.On("FindByID", mock.Anything, uint64(1)).Return(testDocument(), nil).Once()
	repository.On("FindByID", mock.Anything, uint64(1)).Return(nil, gorm.ErrRecordNotFound)

	rows, err := service.Rows(context.Background(), 1, 7)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = service.Reload(context.Background(), 1, 7)
	assert.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)

	_, held := registry.Get(7, 1)
	assert.False(t, held)

	// the next read rebuilds from storage and sees the deletion too
	_, err = service.Rows(context.Background(), 1, 7)
	assert.Error(t, err)
}

func TestRows_RejectsOtherUsersDocument(t *testing.T) {
	repository := new(MockRepository)
	service := NewService(NewRegistry(), repository, Options{DiscardPendingOnReload: true})

	repository.On("FindByID", mock.Anything, uint64(1)).Return(testDocument(), nil)

	_, err := service.Rows(context.Background(), 1, 99)

	assert.Error(t, err)
	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 403, apiErr.Status)
}
