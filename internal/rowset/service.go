package rowset

import (
	"context"
	defError "errors"
	"structured-docs/internal/document"
	"structured-docs/internal/errors"

	"gorm.io/gorm"
)

type Service interface {
	Rows(ctx context.Context, docID, userID uint64) ([]Row, error)
	AddPendingRow(ctx context.Context, docID, userID uint64) (*Row, error)
	AddPendingRowFromFile(ctx context.Context, docID, userID uint64, data document.RowData, meta *document.FileMetadata) (*Row, error)
	UpdateRowField(ctx context.Context, docID, userID uint64, ref Ref, field string, value any) error
	CommitRow(ctx context.Context, docID, userID uint64, localID string) (*document.Document, error)
	SaveDurableRow(ctx context.Context, docID, userID uint64, rowID uint64, data document.RowData) (*document.Row, error)
	DeleteRow(ctx context.Context, docID, userID uint64, ref Ref) error
	Reload(ctx context.Context, docID, userID uint64) ([]Row, error)
}

type DefaultService struct {
	registry   *Registry
	repository document.DocumentRepository
	opts       Options
}

func NewService(registry *Registry, repository document.DocumentRepository, opts Options) Service {
	return &DefaultService{
		registry:   registry,
		repository: repository,
		opts:       opts,
	}
}

// session returns the reconciler owning this user's view of the document,
// fetching the document on first touch
func (s *DefaultService) session(ctx context.Context, docID, userID uint64) (*Reconciler, error) {
	return s.registry.GetOrCreate(userID, docID, func() (*Reconciler, error) {
		doc, err := s.fetchOwned(ctx, docID, userID)
		if err != nil {
			return nil, err
		}
		return NewReconciler(doc, s.repository, s.opts), nil
	})
}

func (s *DefaultService) fetchOwned(ctx context.Context, docID, userID uint64) (*document.Document, error) {
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

func (s *DefaultService) Rows(ctx context.Context, docID, userID uint64) ([]Row, error) {
	rec, err := s.session(ctx, docID, userID)
	if err != nil {
		return nil, err
	}
	return rec.Rows(), nil
}

func (s *DefaultService) AddPendingRow(ctx context.Context, docID, userID uint64) (*Row, error) {
	rec, err := s.session(ctx, docID, userID)
	if err != nil {
		return nil, err
	}
	row := rec.AddPending()
	return &row, nil
}

func (s *DefaultService) AddPendingRowFromFile(ctx context.Context, docID, userID uint64, data document.RowData, meta *document.FileMetadata) (*Row, error) {
	rec, err := s.session(ctx, docID, userID)
	if err != nil {
		return nil, err
	}
	row := rec.AddPendingFromFile(data, meta)
	return &row, nil
}

func (s *DefaultService) UpdateRowField(ctx context.Context, docID, userID uint64, ref Ref, field string, value any) error {
	rec, err := s.session(ctx, docID, userID)
	if err != nil {
		return err
	}
	// a miss is deliberate permissiveness, not an error path
	rec.UpdateRowField(ref, field, value)
	return nil
}

func (s *DefaultService) CommitRow(ctx context.Context, docID, userID uint64, localID string) (*document.Document, error) {
	rec, err := s.session(ctx, docID, userID)
	if err != nil {
		return nil, err
	}
	return rec.CommitRow(ctx, localID)
}

// SaveDurableRow persists edits to an already durable row and reflects the
// confirmed result into the session
func (s *DefaultService) SaveDurableRow(ctx context.Context, docID, userID uint64, rowID uint64, data document.RowData) (*document.Row, error) {
	rec, err := s.session(ctx, docID, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repository.UpdateRowData(ctx, rowID, data)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Row not found", err)
		}
		return nil, err
	}

	rec.SyncDurableRow(updated)
	return updated, nil
}

func (s *DefaultService) DeleteRow(ctx context.Context, docID, userID uint64, ref Ref) error {
	rec, err := s.session(ctx, docID, userID)
	if err != nil {
		return err
	}
	return rec.DeleteRow(ctx, ref)
}

// Reload re-fetches the document and reconciles by full replacement
func (s *DefaultService) Reload(ctx context.Context, docID, userID uint64) ([]Row, error) {
	rec, err := s.session(ctx, docID, userID)
	if err != nil {
		return nil, err
	}

	fresh, err := s.fetchOwned(ctx, docID, userID)
	if err != nil {
		// the document is gone, holding the session would keep its stale
		// rows reachable
		if defError.Is(err, gorm.ErrRecordNotFound) {
			s.registry.Drop(userID, docID)
		}
		return nil, err
	}

	return rec.ReconcileOnReload(fresh), nil
}
