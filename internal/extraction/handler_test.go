package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"structured-docs/internal/middleware"
	"structured-docs/internal/settings"
	"structured-docs/internal/worker"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mock implementation of the settings repository
type MockSettings struct {
	mock.Mock
}

func (m *MockSettings) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockSettings) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// audit writes happen off the request path, a plain fake keeps them out of
// the assertions
type fakeAudits struct{}

func (fakeAudits) Create(ctx context.Context, audit *UploadAudit) error { return nil }
func (fakeAudits) ListByUserID(ctx context.Context, userID uint64, limit int) ([]UploadAudit, error) {
	return nil, nil
}

func setupProxyRouter(endpoint string, configured bool, timeout time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)

	settingsRepo := new(MockSettings)
	if configured {
		settingsRepo.On("Get", mock.Anything, settings.KeyAPIEndpoint).Return(endpoint, nil)
	} else {
		settingsRepo.On("Get", mock.Anything, settings.KeyAPIEndpoint).Return("", settings.ErrNotConfigured)
	}

	handler := NewHandler(
		NewClient(timeout),
		settingsRepo,
		NewSimulator(),
		fakeAudits{},
		worker.NewWorkerPool(1),
		4<<20,
	)

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.POST("/upload-proxy", func(c *gin.Context) {
		c.Set("user_id", uint64(1))
		handler.UploadProxy(c)
	})
	return router
}

func uploadRequest(t *testing.T, fileSize int, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for k, v := range fields {
		writer.WriteField(k, v)
	}

	if fileSize > 0 {
		part, err := writer.CreateFormFile("file", "invoice.pdf")
		assert.NoError(t, err)
		part.Write(bytes.Repeat([]byte("a"), fileSize))
	}

	writer.Close()

	req := httptest.NewRequest("POST", "/upload-proxy", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func countingEndpoint(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

// An oversized file is rejected before any network call
func TestUploadProxy_TooLarge(t *testing.T) {
	endpoint, hits := countingEndpoint(t, func(w http.ResponseWriter, r *http.Request) {})
	router := setupProxyRouter(endpoint.URL, true, time.Second)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, 5<<20, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["error"])
	assert.Equal(t, "File too large (max 4MB)", response["message"])
	assert.Equal(t, int64(0), hits.Load())
}

// A missing endpoint is a configuration state, not a network failure, and
// nothing is contacted
func TestUploadProxy_NotConfigured(t *testing.T) {
	_, hits := countingEndpoint(t, func(w http.ResponseWriter, r *http.Request) {})
	router := setupProxyRouter("", false, time.Second)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, 100, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "not_configured", response["code"])
	assert.Equal(t, int64(0), hits.Load())
}

func TestUploadProxy_MissingFile(t *testing.T) {
	router := setupProxyRouter("http://unused", true, time.Second)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, 0, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "Missing file", response["message"])
}

// Endpoint-side failures are relayed with their status preserved
func TestUploadProxy_EndpointErrorPassthrough(t *testing.T) {
	endpoint, _ := countingEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	router := setupProxyRouter(endpoint.URL, true, time.Second)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, 100, nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["error"])
	assert.Equal(t, "Endpoint responded with 503", response["message"])
}

// A well-formed endpoint response travels back verbatim
func TestUploadProxy_RelaysPayload(t *testing.T) {
	endpoint, hits := countingEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"titulo": "Invoice 42"},
		})
	})
	router := setupProxyRouter(endpoint.URL, true, time.Second)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, 100, map[string]string{
		"fields":        `[{"name":"titulo","type":"text"}]`,
		"existing_rows": `[]`,
	}))

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["success"])
	data := response["data"].(map[string]any)
	assert.Equal(t, "Invoice 42", data["titulo"])
	assert.Equal(t, int64(1), hits.Load())
}

// The endpoint accepted the bytes but answered garbage: synthesized success
// plus a simulated preview
func TestUploadProxy_UnparsableBodySynthesizesSuccess(t *testing.T) {
	endpoint, _ := countingEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	})
	router := setupProxyRouter(endpoint.URL, true, time.Second)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, 100, map[string]string{
		"fields": `[{"name":"fecha","type":"date"}]`,
	}))

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["success"])

	preview := response["preview"].(map[string]any)
	assert.Equal(t, time.Now().Format("2006-01-02"), preview["fecha"])
}

// Hitting the ceiling is a soft success flagged as background processing,
// never a failure
func TestUploadProxy_TimeoutSoftSuccess(t *testing.T) {
	endpoint, _ := countingEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	})
	router := setupProxyRouter(endpoint.URL, true, 50*time.Millisecond)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, 100, nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, true, response["processing_in_background"])
}

// Unreachable endpoint: generic failure, but the file's local metadata is
// still returned so the attempt stays visible
func TestUploadProxy_NetworkErrorKeepsMetadata(t *testing.T) {
	router := setupProxyRouter("http://127.0.0.1:1", true, time.Second)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, 100, nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["error"])

	file := response["file"].(map[string]any)
	assert.Equal(t, "invoice.pdf", file["filename"])
}

// Oversized clients fall back to metadata-only delivery, the flag travels
// onward with the form fields
func TestUploadProxy_MetadataOnlyForward(t *testing.T) {
	var sawFlag bool
	var sawFile bool
	endpoint, _ := countingEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(8 << 20)
		sawFlag = r.FormValue("metadata_only") == "true"
		_, _, err := r.FormFile("file")
		sawFile = err == nil
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})
	router := setupProxyRouter(endpoint.URL, true, time.Second)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, 0, map[string]string{
		"metadata_only": "true",
		"filename":      "big-scan.pdf",
		"file_size":     "9000000",
		"file_type":     "application/pdf",
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sawFlag)
	assert.False(t, sawFile)
}
