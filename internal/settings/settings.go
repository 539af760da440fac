package settings

import (
	"context"
	defError "errors"
	"time"

	"gorm.io/gorm"
)

// KeyAPIEndpoint is the single well-known setting the upload proxy resolves
// its target from
const KeyAPIEndpoint = "api_endpoint"

// ErrNotConfigured marks the absence of a configured value. Callers must
// keep it distinct from network failures so the UI can redirect the user to
// the settings screen instead of reporting an outage.
var ErrNotConfigured = defError.New("setting is not configured")

// Setting is one key/value configuration record
type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Get(ctx context.Context, key string) (string, error) {
	var s Setting
	err := r.db.WithContext(ctx).First(&s, "key = ?", key).Error
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotConfigured
		}
		return "", err
	}
	if s.Value == "" {
		return "", ErrNotConfigured
	}
	return s.Value, nil
}

func (r *RepositoryImpl) Set(ctx context.Context, key, value string) error {
	s := Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Save(&s).Error
}
