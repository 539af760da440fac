package document

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, userID uint64, document *Document) error
	FindByID(ctx context.Context, id uint64) (*Document, error)
	ListByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]Document, DocumentsMeta, error)
	Update(ctx context.Context, document *Document) error
	Delete(ctx context.Context, id uint64) error

	CreateRow(ctx context.Context, row *Row) error
	UpdateRowData(ctx context.Context, id uint64, data RowData) (*Row, error)
	DeleteRow(ctx context.Context, id uint64) error
}

type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new document repository
func NewRepository(db *gorm.DB) DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, userID uint64, document *Document) error {
	document.UserID = userID
	document.CreatedAt = time.Now().UTC() // Use UTC for consistency
	document.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(document).Error
}

// FindByID loads a document together with its durable rows, ordered by
// creation so the display order is stable
func (r *DocumentRepositoryImpl) FindByID(ctx context.Context, id uint64) (*Document, error) {
	var doc Document
	err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB {
			return db.Order("rows.id ASC")
		}).
		First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

type DocumentsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

func (r *DocumentRepositoryImpl) ListByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]Document, DocumentsMeta, error) {
	var documents []Document
	var totalRecords int64

	// Count total records
	if err := r.db.WithContext(ctx).Model(&Document{}).Where("user_id = ?", userID).Count(&totalRecords).Error; err != nil {
		return documents, DocumentsMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("updated_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&documents).Error

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))

	return documents, DocumentsMeta{
		Total:       totalRecords,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}, err
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, document *Document) error {
	document.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(document).Error
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&Row{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Document{}, id).Error
	})
}

func (r *DocumentRepositoryImpl) CreateRow(ctx context.Context, row *Row) error {
	row.CreatedAt = time.Now().UTC()
	row.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *DocumentRepositoryImpl) UpdateRowData(ctx context.Context, id uint64, data RowData) (*Row, error) {
	var row Row
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}

	// merge only the named values, other fields stay untouched
	if row.Data == nil {
		row.Data = RowData{}
	}
	for k, v := range data {
		row.Data[k] = v
	}
	row.UpdatedAt = time.Now().UTC()

	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *DocumentRepositoryImpl) DeleteRow(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&Row{}, id).Error
}
