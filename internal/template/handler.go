package template

import (
	"net/http"
	"strconv"
	"structured-docs/internal/errors"
	"structured-docs/internal/schema"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ShowUserTemplates(c *gin.Context) {
	userID, _ := c.Get("user_id")

	templates, err := h.service.GetUserTemplates(c.Request.Context(), userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *Handler) ShowTemplate(c *gin.Context) {
	templateID, apiErr := parseTemplateID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	userID, _ := c.Get("user_id")

	tpl, err := h.service.GetTemplate(c.Request.Context(), templateID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, tpl)
}

type CreateTemplateRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=255"`
	Description string           `json:"description"`
	Fields      schema.FieldList `json:"fields" binding:"required,min=1"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateTemplateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	tpl := &Template{
		Name:        form.Name,
		Description: form.Description,
		Fields:      form.Fields,
	}

	if err := h.service.CreateTemplate(c.Request.Context(), userID.(uint64), tpl); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, tpl)
}

type SaveAsTemplateRequest struct {
	DocumentID  uint64 `json:"document_id" binding:"required"`
	Name        string `json:"name" binding:"max=255"`
	Description string `json:"description"`
}

func (h *Handler) SaveAsTemplate(c *gin.Context) {
	var form SaveAsTemplateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	tpl, err := h.service.SaveAsTemplate(c.Request.Context(), form.DocumentID, userID.(uint64), form.Name, form.Description)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, tpl)
}

func (h *Handler) LoadFields(c *gin.Context) {
	templateID, apiErr := parseTemplateID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	userID, _ := c.Get("user_id")

	fields, err := h.service.LoadFields(c.Request.Context(), templateID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

type ApplyTemplateRequest struct {
	DocumentID uint64 `json:"document_id" binding:"required"`
}

func (h *Handler) Apply(c *gin.Context) {
	templateID, apiErr := parseTemplateID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	var form ApplyTemplateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	doc, err := h.service.ApplyToDocument(c.Request.Context(), templateID, form.DocumentID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Duplicate(c *gin.Context) {
	templateID, apiErr := parseTemplateID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	userID, _ := c.Get("user_id")

	tpl, err := h.service.DuplicateTemplate(c.Request.Context(), templateID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, tpl)
}

type UpdateTemplateRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description"`
}

func (h *Handler) Update(c *gin.Context) {
	templateID, apiErr := parseTemplateID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	var form UpdateTemplateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	tpl, err := h.service.UpdateTemplate(c.Request.Context(), templateID, userID.(uint64), form.Name, form.Description)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, tpl)
}

func (h *Handler) Delete(c *gin.Context) {
	templateID, apiErr := parseTemplateID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	userID, _ := c.Get("user_id")

	if err := h.service.DeleteTemplate(c.Request.Context(), templateID, userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseTemplateID(c *gin.Context) (uint64, *errors.APIError) {
	templateID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.NotFound("Template not found", err)
	}
	return templateID, nil
}
