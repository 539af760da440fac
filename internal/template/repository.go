package template

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(ctx context.Context, userID uint64, template *Template) error
	FindByID(ctx context.Context, id uint64) (*Template, error)
	ListByUserID(ctx context.Context, userID uint64) ([]Template, error)
	Update(ctx context.Context, template *Template) error
	Delete(ctx context.Context, id uint64) error
}

type TemplateRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new template repository
func NewRepository(db *gorm.DB) TemplateRepository {
	return &TemplateRepositoryImpl{db: db}
}

func (r *TemplateRepositoryImpl) Create(ctx context.Context, userID uint64, template *Template) error {
	template.UserID = userID
	template.CreatedAt = time.Now().UTC()
	template.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *TemplateRepositoryImpl) FindByID(ctx context.Context, id uint64) (*Template, error) {
	var tpl Template
	err := r.db.WithContext(ctx).First(&tpl, id).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepositoryImpl) ListByUserID(ctx context.Context, userID uint64) ([]Template, error) {
	var templates []Template
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&templates).Error
	return templates, err
}

func (r *TemplateRepositoryImpl) Update(ctx context.Context, template *Template) error {
	template.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(template).Error
}

func (r *TemplateRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&Template{}, id).Error
}
