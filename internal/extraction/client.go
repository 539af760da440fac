package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	defError "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// EndpointError relays a non-2xx answer from the extraction endpoint with
// its status preserved
type EndpointError struct {
	Status  int
	Message string
}

func (e *EndpointError) Error() string {
	return e.Message
}

// NetworkError marks a transport failure that is not a timeout
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "extraction endpoint unreachable: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Result is the normalized outcome of a forward. Exactly one of three
// shapes: a relayed payload, a synthesized success (2xx with unparsable
// body), or a background acceptance (timeout hit, the endpoint may still
// finish the work asynchronously).
type Result struct {
	Payload                map[string]any
	Synthesized            bool
	ProcessingInBackground bool
}

// Usable reports whether the payload is a real, well-formed endpoint
// response. Only an unusable result warrants the simulator fallback.
func (r *Result) Usable() bool {
	return !r.Synthesized && !r.ProcessingInBackground
}

// FilePart is the binary part of an outbound forward
type FilePart struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// Client forwards an uploaded file plus its accompanying form fields to the
// configured extraction endpoint under a bounded timeout
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient builds a client whose per-call ceiling must stay below the
// platform's own execution ceiling, so the proxy always answers its caller
// before being killed itself
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Forward repackages the file and every non-file form field unchanged into
// a new multipart request to the endpoint
func (c *Client) Forward(ctx context.Context, endpoint string, file *FilePart, fields map[string][]string) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, values := range fields {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return nil, err
			}
		}
	}

	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Filename)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Hitting the ceiling aborts the in-flight request, but the
		// endpoint may still complete the work, so the caller gets a soft
		// success flagged as processing in background.
		if defError.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return &Result{ProcessingInBackground: true}, nil
		}
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// status passthrough, not rewritten
		return nil, &EndpointError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Endpoint responded with %d", resp.StatusCode),
		}
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// the endpoint accepted the bytes, treat it as success even absent
		// structured confirmation
		return &Result{
			Payload:     map[string]any{"success": true},
			Synthesized: true,
		}, nil
	}

	return &Result{Payload: payload}, nil
}
