package template

import (
	"context"
	defError "errors"
	"structured-docs/internal/document"
	"structured-docs/internal/errors"
	"structured-docs/internal/schema"

	"gorm.io/gorm"
)

type Service interface {
	GetUserTemplates(ctx context.Context, userID uint64) ([]Template, error)
	GetTemplate(ctx context.Context, templateID, userID uint64) (*Template, error)
	CreateTemplate(ctx context.Context, userID uint64, tpl *Template) error
	SaveAsTemplate(ctx context.Context, docID, userID uint64, name, description string) (*Template, error)
	LoadFields(ctx context.Context, templateID, userID uint64) (schema.FieldList, error)
	ApplyToDocument(ctx context.Context, templateID, docID, userID uint64) (*document.Document, error)
	DuplicateTemplate(ctx context.Context, templateID, userID uint64) (*Template, error)
	UpdateTemplate(ctx context.Context, templateID, userID uint64, name, description string) (*Template, error)
	DeleteTemplate(ctx context.Context, templateID, userID uint64) error
}

type DefaultService struct {
	repository   TemplateRepository
	documentRepo document.DocumentRepository
}

func NewService(repository TemplateRepository, documentRepo document.DocumentRepository) Service {
	return &DefaultService{
		repository:   repository,
		documentRepo: documentRepo,
	}
}

func (s *DefaultService) findOwned(ctx context.Context, templateID, userID uint64) (*Template, error) {
	tpl, err := s.repository.FindByID(ctx, templateID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Template not found", err)
		}
		return nil, err
	}
	if tpl.UserID != userID {
		return nil, errors.Forbidden("Not your template", nil)
	}
	return tpl, nil
}

func (s *DefaultService) GetUserTemplates(ctx context.Context, userID uint64) ([]Template, error) {
	return s.repository.ListByUserID(ctx, userID)
}

func (s *DefaultService) GetTemplate(ctx context.Context, templateID, userID uint64) (*Template, error) {
	return s.findOwned(ctx, templateID, userID)
}

func (s *DefaultService) CreateTemplate(ctx context.Context, userID uint64, tpl *Template) error {
	if tpl.Name == "" {
		return errors.UnprocessableEntity("Template name cannot be empty", nil)
	}
	if len(tpl.Fields) == 0 {
		return errors.UnprocessableEntity("Template needs at least one field", nil)
	}

	tpl.Fields = tpl.Fields.Reindex()
	if err := tpl.Fields.Validate(); err != nil {
		return errors.UnprocessableEntity(err.Error(), err)
	}

	return s.repository.Create(ctx, userID, tpl)
}

// SaveAsTemplate derives a template from a document's current fields. The
// copy gets fresh field ids, so later edits to the document's fields can't
// silently mutate the template, and vice versa.
func (s *DefaultService) SaveAsTemplate(ctx context.Context, docID, userID uint64, name, description string) (*Template, error) {
	doc, err := s.documentRepo.FindByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}
	if doc.UserID != userID {
		return nil, errors.Forbidden("Not your document", nil)
	}
	if !doc.Named() {
		return nil, errors.UnprocessableEntity("Name the document before saving it as a template", nil)
	}
	if len(doc.Fields) == 0 {
		return nil, errors.UnprocessableEntity("Template needs at least one field", nil)
	}

	if name == "" {
		name = doc.Name
	}

	tpl := &Template{
		Name:        name,
		Description: description,
		Fields:      doc.Fields.Clone(true).Reindex(),
	}
	if err := s.repository.Create(ctx, userID, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// LoadFields returns a by-value copy of the template's field list with ids
// preserved. Sharing ids between a template and a document is fine, fields
// are never cross-referenced by id outside their owning document.
func (s *DefaultService) LoadFields(ctx context.Context, templateID, userID uint64) (schema.FieldList, error) {
	tpl, err := s.findOwned(ctx, templateID, userID)
	if err != nil {
		return nil, err
	}
	return tpl.Fields.Clone(false), nil
}

// ApplyToDocument replaces a document's field schema with the template's
func (s *DefaultService) ApplyToDocument(ctx context.Context, templateID, docID, userID uint64) (*document.Document, error) {
	tpl, err := s.findOwned(ctx, templateID, userID)
	if err != nil {
		return nil, err
	}

	doc, err := s.documentRepo.FindByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}
	if doc.UserID != userID {
		return nil, errors.Forbidden("Not your document", nil)
	}

	doc.Fields = tpl.Fields.Clone(false).Reindex()
	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DuplicateTemplate copies a template with refreshed field ids
func (s *DefaultService) DuplicateTemplate(ctx context.Context, templateID, userID uint64) (*Template, error) {
	tpl, err := s.findOwned(ctx, templateID, userID)
	if err != nil {
		return nil, err
	}

	copyTpl := &Template{
		Name:        tpl.Name + " (copy)",
		Description: tpl.Description,
		Fields:      tpl.Fields.Clone(true),
	}
	if err := s.repository.Create(ctx, userID, copyTpl); err != nil {
		return nil, err
	}
	return copyTpl, nil
}

func (s *DefaultService) UpdateTemplate(ctx context.Context, templateID, userID uint64, name, description string) (*Template, error) {
	if name == "" {
		return nil, errors.BadRequest("Name cannot be empty", nil)
	}

	tpl, err := s.findOwned(ctx, templateID, userID)
	if err != nil {
		return nil, err
	}

	tpl.Name = name
	tpl.Description = description
	if err := s.repository.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *DefaultService) DeleteTemplate(ctx context.Context, templateID, userID uint64) error {
	if _, err := s.findOwned(ctx, templateID, userID); err != nil {
		return err
	}
	return s.repository.Delete(ctx, templateID)
}
