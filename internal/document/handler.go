package document

import (
	"net/http"
	"strconv"
	"structured-docs/internal/errors"
	"structured-docs/internal/schema"
	"structured-docs/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func init() {
	// "fieldtype" narrows the type member of a field to the known enum
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("fieldtype", func(fl validator.FieldLevel) bool {
			return schema.FieldType(fl.Field().String()).Valid()
		})
	}
}

type FieldInput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type" binding:"required,fieldtype"`
	Description string   `json:"description"`
	Variants    []string `json:"variants"`
	Formats     []string `json:"formats"`
	Required    bool     `json:"required"`
}

func toFieldList(inputs []FieldInput) schema.FieldList {
	fields := make(schema.FieldList, 0, len(inputs))
	for _, in := range inputs {
		fields = append(fields, schema.Field{
			ID:          in.ID,
			Name:        in.Name,
			Type:        schema.FieldType(in.Type),
			Description: in.Description,
			Variants:    in.Variants,
			Formats:     in.Formats,
			Required:    in.Required,
		})
	}
	return fields
}

type CreateDocumentRequest struct {
	Name        string       `json:"name" binding:"max=255"`
	Description string       `json:"description"`
	Fields      []FieldInput `json:"fields" binding:"required,min=1,dive"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateDocumentRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	doc := &Document{
		Name:        form.Name,
		Description: form.Description,
		Fields:      toFieldList(form.Fields),
	}

	if err := h.service.CreateDocument(c.Request.Context(), userID.(uint64), doc); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) ShowUserDocuments(c *gin.Context) {
	userID, _ := c.Get("user_id")

	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.GetUserDocuments(c.Request.Context(), userID.(uint64), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ShowDocument(c *gin.Context) {
	docID, err := parseDocumentID(c)
	if err != nil {
		c.Error(err)
		return
	}

	userID, _ := c.Get("user_id")

	doc, err := h.service.GetDocument(c.Request.Context(), docID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

type UpdateInfoRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description"`
}

func (h *Handler) UpdateInfo(c *gin.Context) {
	docID, err := parseDocumentID(c)
	if err != nil {
		c.Error(err)
		return
	}

	var form UpdateInfoRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	doc, err := h.service.UpdateInfo(c.Request.Context(), docID, userID.(uint64), form.Name, form.Description)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

type SaveFieldsRequest struct {
	Fields []FieldInput `json:"fields" binding:"required,min=1,dive"`
}

func (h *Handler) SaveFields(c *gin.Context) {
	docID, err := parseDocumentID(c)
	if err != nil {
		c.Error(err)
		return
	}

	var form SaveFieldsRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	doc, err := h.service.SaveFields(c.Request.Context(), docID, userID.(uint64), toFieldList(form.Fields))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	docID, err := parseDocumentID(c)
	if err != nil {
		c.Error(err)
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.DeleteDocument(c.Request.Context(), docID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseDocumentID(c *gin.Context) (uint64, error) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.NotFound("Document not found", err)
	}
	return docID, nil
}
