package rowset

import (
	"net/http"
	"strconv"
	"structured-docs/internal/document"
	"structured-docs/internal/errors"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ShowRows(c *gin.Context) {
	docID, apiErr := parseDocID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	userID, _ := c.Get("user_id")

	rows, err := h.service.Rows(c.Request.Context(), docID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

type CreateRowRequest struct {
	Data         document.RowData       `json:"data"`
	FileMetadata *document.FileMetadata `json:"file_metadata"`
}

// CreateRow adds a pending row to the session. With file metadata in the
// body the row is tagged as pending-from-file (confirmed extraction data).
func (h *Handler) CreateRow(c *gin.Context) {
	docID, apiErr := parseDocID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	userID, _ := c.Get("user_id")

	var form CreateRowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&form); err != nil {
			c.Error(errors.NewValidationError(err))
			return
		}
	}

	var row *Row
	var err error
	if form.FileMetadata != nil {
		row, err = h.service.AddPendingRowFromFile(c.Request.Context(), docID, userID.(uint64), form.Data, form.FileMetadata)
	} else {
		row, err = h.service.AddPendingRow(c.Request.Context(), docID, userID.(uint64))
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

type UpdateRowFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

func (h *Handler) UpdateRowField(c *gin.Context) {
	docID, apiErr := parseDocID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	var form UpdateRowFieldRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")
	ref := parseRowRef(c.Param("rowId"))

	err := h.service.UpdateRowField(c.Request.Context(), docID, userID.(uint64), ref, form.Field, form.Value)
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) CommitRow(c *gin.Context) {
	docID, apiErr := parseDocID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	ref := parseRowRef(c.Param("rowId"))
	if ref.LocalID == "" {
		c.Error(errors.UnprocessableEntity("Only pending rows can be committed", nil))
		return
	}

	userID, _ := c.Get("user_id")

	doc, err := h.service.CommitRow(c.Request.Context(), docID, userID.(uint64), ref.LocalID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

type SaveRowRequest struct {
	Data document.RowData `json:"data" binding:"required"`
}

func (h *Handler) SaveRow(c *gin.Context) {
	docID, apiErr := parseDocID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	ref := parseRowRef(c.Param("rowId"))
	if ref.ID == 0 {
		c.Error(errors.UnprocessableEntity("Row is not durable yet, commit it first", nil))
		return
	}

	var form SaveRowRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	row, err := h.service.SaveDurableRow(c.Request.Context(), docID, userID.(uint64), ref.ID, form.Data)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (h *Handler) DeleteRow(c *gin.Context) {
	docID, apiErr := parseDocID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	userID, _ := c.Get("user_id")
	ref := parseRowRef(c.Param("rowId"))

	if err := h.service.DeleteRow(c.Request.Context(), docID, userID.(uint64), ref); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Reload(c *gin.Context) {
	docID, apiErr := parseDocID(c)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}

	userID, _ := c.Get("user_id")

	rows, err := h.service.Reload(c.Request.Context(), docID, userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func parseDocID(c *gin.Context) (uint64, *errors.APIError) {
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.NotFound("Document not found", err)
	}
	return docID, nil
}

// parseRowRef maps a path segment to a row reference: numeric segments
// address durable rows, anything else is a transient local id
func parseRowRef(raw string) Ref {
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return Ref{ID: id}
	}
	return Ref{LocalID: raw}
}
