package extraction

import (
	"context"
	"encoding/json"
	defError "errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"structured-docs/internal/document"
	"structured-docs/internal/errors"
	"structured-docs/internal/schema"
	"structured-docs/internal/settings"
	"structured-docs/internal/worker"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	client         *Client
	settings       settings.Repository
	simulator      *Simulator
	audits         AuditRepository
	pool           *worker.WorkerPool
	maxUploadBytes int64
}

func NewHandler(
	client *Client,
	settingsRepo settings.Repository,
	simulator *Simulator,
	audits AuditRepository,
	pool *worker.WorkerPool,
	maxUploadBytes int64,
) *Handler {
	return &Handler{
		client:         client,
		settings:       settingsRepo,
		simulator:      simulator,
		audits:         audits,
		pool:           pool,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadProxy forwards an uploaded file plus its accompanying form fields to
// the configured extraction endpoint. The caller never learns the endpoint's
// address and never talks to it directly.
//
// Responses use the proxy's own wire shape ({error:true, message} on
// failure) rather than the APIError middleware, because endpoint-side
// statuses are relayed verbatim.
func (h *Handler) UploadProxy(c *gin.Context) {
	userID, _ := c.Get("user_id")

	metadataOnly := c.PostForm("metadata_only") == "true"

	fileHeader, err := c.FormFile("file")
	if err != nil && !metadataOnly {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Missing file"})
		return
	}

	// hard cap enforced before any network call
	if fileHeader != nil && fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   true,
			"message": fmt.Sprintf("File too large (max %dMB)", h.maxUploadBytes>>20),
		})
		return
	}

	// The endpoint comes from configuration, not from the request. Its
	// absence is a distinct, named state the frontend reacts to by sending
	// the user to the settings screen; it is never reported as a network
	// failure.
	endpoint, err := h.settings.Get(c.Request.Context(), settings.KeyAPIEndpoint)
	if err != nil {
		if defError.Is(err, settings.ErrNotConfigured) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   true,
				"code":    "not_configured",
				"message": "Extraction endpoint is not configured",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Internal server error"})
		return
	}

	meta := h.fileMetadata(c, fileHeader, metadataOnly)

	var filePart *FilePart
	if fileHeader != nil && !metadataOnly {
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Could not read upload"})
			return
		}
		defer f.Close()
		filePart = &FilePart{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Reader:      f,
		}
	}

	// every non-file form field travels onward unchanged
	var fields map[string][]string
	if c.Request.MultipartForm != nil {
		fields = c.Request.MultipartForm.Value
	}

	result, err := h.client.Forward(c.Request.Context(), endpoint, filePart, fields)
	if err != nil {
		var endpointErr *EndpointError
		if defError.As(err, &endpointErr) {
			h.audit(userID.(uint64), meta, OutcomeEndpointErr)
			c.JSON(endpointErr.Status, gin.H{"error": true, "message": endpointErr.Message})
			return
		}

		// transport failure: the upload still yields its local metadata so
		// the attempt stays visible to the user
		h.audit(userID.(uint64), meta, OutcomeNetworkErr)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   true,
			"message": "Could not reach extraction endpoint",
			"file":    meta,
		})
		return
	}

	if result.Usable() {
		h.audit(userID.(uint64), meta, OutcomeForwarded)
		c.JSON(http.StatusOK, result.Payload)
		return
	}

	// absent or unusable real result: the simulator supplies the reviewable
	// preview
	preview := h.preview(c, meta.Filename)

	if result.ProcessingInBackground {
		h.audit(userID.(uint64), meta, OutcomeBackground)
		c.JSON(http.StatusOK, gin.H{
			"success":                  true,
			"processing_in_background": true,
			"file":                     meta,
			"preview":                  preview,
		})
		return
	}

	h.audit(userID.(uint64), meta, OutcomeForwarded)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"file":    meta,
		"preview": preview,
	})
}

// fileMetadata derives the upload's metadata: from the file part when there
// is one, from the accompanying form fields on a metadata-only request
func (h *Handler) fileMetadata(c *gin.Context, fileHeader *multipart.FileHeader, metadataOnly bool) document.FileMetadata {
	if fileHeader != nil && !metadataOnly {
		return document.FileMetadata{
			Filename:   fileHeader.Filename,
			FileSize:   fileHeader.Size,
			FileType:   fileHeader.Header.Get("Content-Type"),
			UploadDate: time.Now().UTC(),
		}
	}

	size, _ := strconv.ParseInt(c.PostForm("file_size"), 10, 64)
	return document.FileMetadata{
		Filename:   c.PostForm("filename"),
		FileSize:   size,
		FileType:   c.PostForm("file_type"),
		UploadDate: time.Now().UTC(),
	}
}

func (h *Handler) preview(c *gin.Context, filename string) document.RowData {
	raw := c.PostForm("fields")
	if raw == "" {
		return nil
	}

	var fields schema.FieldList
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil
	}

	return h.simulator.Simulate(fields, filename)
}

// audit records the attempt off the request path
func (h *Handler) audit(userID uint64, meta document.FileMetadata, outcome string) {
	entry := &UploadAudit{
		UserID:   userID,
		Filename: meta.Filename,
		FileSize: meta.FileSize,
		FileType: meta.FileType,
		Outcome:  outcome,
	}
	h.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return h.audits.Create(ctx, entry)
	})
}

type SimulateRequest struct {
	Filename string             `json:"filename" binding:"required"`
	Fields   []SimulateFieldRef `json:"fields" binding:"required,min=1,dive"`
}

type SimulateFieldRef struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required"`
}

// Simulate returns a fallback data mapping without contacting any endpoint.
// The UI uses it while no extraction endpoint is configured.
func (h *Handler) Simulate(c *gin.Context) {
	var form SimulateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	fields := make(schema.FieldList, 0, len(form.Fields))
	for _, f := range form.Fields {
		fields = append(fields, schema.Field{Name: f.Name, Type: schema.FieldType(f.Type)})
	}

	c.JSON(http.StatusOK, gin.H{"data": h.simulator.Simulate(fields, form.Filename)})
}

// ShowUploads lists the user's recent upload attempts
func (h *Handler) ShowUploads(c *gin.Context) {
	userID, _ := c.Get("user_id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	audits, err := h.audits.ListByUserID(c.Request.Context(), userID.(uint64), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploads": audits})
}
