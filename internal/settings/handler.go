package settings

import (
	defError "errors"
	"net/http"
	"structured-docs/internal/errors"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repository Repository
}

func NewHandler(repository Repository) *Handler {
	return &Handler{repository: repository}
}

func (h *Handler) ShowEndpoint(c *gin.Context) {
	value, err := h.repository.Get(c.Request.Context(), KeyAPIEndpoint)
	if err != nil {
		if defError.Is(err, ErrNotConfigured) {
			c.JSON(http.StatusOK, gin.H{"configured": false})
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"configured": true, "api_endpoint": value})
}

type SetEndpointRequest struct {
	APIEndpoint string `json:"api_endpoint" binding:"required,url"`
}

func (h *Handler) SetEndpoint(c *gin.Context) {
	var form SetEndpointRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.repository.Set(c.Request.Context(), KeyAPIEndpoint, form.APIEndpoint); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"api_endpoint": form.APIEndpoint})
}
