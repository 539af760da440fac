package document

import (
	"context"
	defError "errors"
	"fmt"
	"structured-docs/internal/errors"
	"structured-docs/internal/schema"
	"structured-docs/redis"
	"time"

	"gorm.io/gorm"
)

type Service interface {
	CreateDocument(ctx context.Context, userID uint64, doc *Document) error
	GetDocument(ctx context.Context, docID uint64, userID uint64) (*Document, error)
	GetUserDocuments(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedDocuments, error)
	UpdateInfo(ctx context.Context, docID uint64, userID uint64, name, description string) (*Document, error)
	SaveFields(ctx context.Context, docID uint64, userID uint64, fields schema.FieldList) (*Document, error)
	DeleteDocument(ctx context.Context, docID uint64, userID uint64) error
}

// SessionInvalidator forgets any live row session for a document, satisfied
// by the rowset registry
type SessionInvalidator interface {
	Drop(userID, docID uint64)
}

type DefaultService struct {
	repository DocumentRepository
	cache      *redis.Cache
	sessions   SessionInvalidator
}

func NewService(repository DocumentRepository, cache *redis.Cache, sessions SessionInvalidator) Service {
	return &DefaultService{
		repository: repository,
		cache:      cache,
		sessions:   sessions,
	}
}

func (s *DefaultService) CreateDocument(ctx context.Context, userID uint64, doc *Document) error {
	if doc.Name == "" {
		doc.Name = UnnamedDocument
	}
	if len(doc.Fields) == 0 {
		return errors.UnprocessableEntity("Document needs at least one field", nil)
	}

	doc.Fields = doc.Fields.Reindex()
	if err := doc.Fields.Validate(); err != nil {
		return errors.UnprocessableEntity(err.Error(), err)
	}

	err := s.repository.Create(ctx, userID, doc)
	if err == nil {
		s.bumpListVersion(ctx, userID)
	}
	return err
}

// findOwned loads a document and checks the requester owns it
func (s *DefaultService) findOwned(ctx context.Context, docID uint64, userID uint64) (*Document, error) {
	doc, err := s.repository.FindByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}
	if doc.UserID != userID {
		return nil, errors.Forbidden("Not your document", nil)
	}
	return doc, nil
}

func (s *DefaultService) GetDocument(ctx context.Context, docID uint64, userID uint64) (*Document, error) {
	return s.findOwned(ctx, docID, userID)
}

type DocumentListItem struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FieldCount  int       `json:"field_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PaginatedDocuments struct {
	Data []DocumentListItem `json:"data"`
	Meta DocumentsMeta      `json:"meta"`
}

func (s *DefaultService) GetUserDocuments(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedDocuments, error) {
	// Get the current data version for this user's documents
	versionKey := fmt.Sprintf("user:%d:docs:version", userID)
	v := s.cache.GetVersion(ctx, versionKey)

	cacheKey := fmt.Sprintf("docs:u:%d:v:%d:p:%d:ps:%d", userID, v, page, pageSize)

	var result PaginatedDocuments
	// get data from cache
	found, _ := s.cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	documents, meta, err := s.repository.ListByUserID(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]DocumentListItem, 0, len(documents))
	for _, d := range documents {
		items = append(items, DocumentListItem{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			FieldCount:  len(d.Fields),
			CreatedAt:   d.CreatedAt,
			UpdatedAt:   d.UpdatedAt,
		})
	}

	result = PaginatedDocuments{Data: items, Meta: meta}
	// set value to cache
	go s.cache.Set(context.Background(), cacheKey, result, 24*time.Hour)

	return &result, nil
}

func (s *DefaultService) UpdateInfo(ctx context.Context, docID uint64, userID uint64, name, description string) (*Document, error) {
	if name == "" {
		return nil, errors.BadRequest("Name cannot be empty", nil)
	}

	doc, err := s.findOwned(ctx, docID, userID)
	if err != nil {
		return nil, err
	}

	doc.Name = name
	doc.Description = description
	if err := s.repository.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.bumpListVersion(ctx, userID)
	return doc, nil
}

// SaveFields replaces the document's field schema. Order is re-derived from
// list position and the save-time validation rules run here, not at edit
// time.
func (s *DefaultService) SaveFields(ctx context.Context, docID uint64, userID uint64, fields schema.FieldList) (*Document, error) {
	if len(fields) == 0 {
		return nil, errors.UnprocessableEntity("Document needs at least one field", nil)
	}

	doc, err := s.findOwned(ctx, docID, userID)
	if err != nil {
		return nil, err
	}

	fields = fields.Reindex()
	if err := fields.Validate(); err != nil {
		return nil, errors.UnprocessableEntity(err.Error(), err)
	}

	doc.Fields = fields
	if err := s.repository.Update(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *DefaultService) DeleteDocument(ctx context.Context, docID uint64, userID uint64) error {
	if _, err := s.findOwned(ctx, docID, userID); err != nil {
		return err
	}

	if err := s.repository.Delete(ctx, docID); err != nil {
		return err
	}

	// a live row session would keep serving the dead document's rows
	if s.sessions != nil {
		s.sessions.Drop(userID, docID)
	}

	s.bumpListVersion(ctx, userID)
	return nil
}

// bumpListVersion invalidates the cached document list for a user, so any
// new fetch sees the new version
func (s *DefaultService) bumpListVersion(ctx context.Context, userID uint64) {
	versionKey := fmt.Sprintf("user:%d:docs:version", userID)
	s.cache.IncrementVersion(ctx, versionKey)
}
