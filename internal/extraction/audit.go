package extraction

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Upload outcomes recorded for review
const (
	OutcomeForwarded   = "forwarded"
	OutcomeBackground  = "background"
	OutcomeEndpointErr = "endpoint_error"
	OutcomeNetworkErr  = "network_error"
)

// UploadAudit records one upload attempt so failed extractions stay
// reviewable
type UploadAudit struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Filename  string    `json:"filename"`
	FileSize  int64     `json:"file_size"`
	FileType  string    `json:"file_type"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditRepository interface {
	Create(ctx context.Context, audit *UploadAudit) error
	ListByUserID(ctx context.Context, userID uint64, limit int) ([]UploadAudit, error)
}

type AuditRepositoryImpl struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

func (r *AuditRepositoryImpl) Create(ctx context.Context, audit *UploadAudit) error {
	audit.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(audit).Error
}

func (r *AuditRepositoryImpl) ListByUserID(ctx context.Context, userID uint64, limit int) ([]UploadAudit, error) {
	var audits []UploadAudit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&audits).Error
	return audits, err
}
