// Package embedding talks to the external face embedding service.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/photohub/internal/config"
	"github.com/your-org/photohub/internal/observability"
)

const maxErrorBody = 4 << 10

var (
	// ErrUnavailable means the request could not be completed (refused, timeout, DNS, ...).
	ErrUnavailable = errors.New("embedding service unavailable")
	// ErrNoFace means the service answered successfully without an embedding.
	ErrNoFace = errors.New("no face detected")
	// ErrMalformedResponse means a 2xx body that is not the expected JSON shape.
	ErrMalformedResponse = errors.New("malformed embedding response")
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("embedding service returned status %d", e.StatusCode)
}

// Embedder turns a probe image into a face embedding.
type Embedder interface {
	Embed(ctx context.Context, image []byte, filename, contentType string) ([]float32, error)
}

type Client struct {
	url        string
	dimensions int
	client     *http.Client
}

func NewClient(cfg config.EmbeddingConfig) *Client {
	return &Client{
		url:        cfg.URL,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

type embeddingResponse struct {
	Embedding *[]float32 `json:"embedding"`
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Embed uploads image as the multipart field "file" and returns the embedding
// from the JSON response.
func (c *Client) Embed(ctx context.Context, image []byte, filename, contentType string) ([]float32, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		observability.EmbeddingDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		slog.Warn("embedding request failed", "url", c.url, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	observability.EmbeddingDuration.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Embedding == nil || len(*out.Embedding) == 0 {
		return nil, ErrNoFace
	}
	vec := *out.Embedding
	if c.dimensions > 0 && len(vec) != c.dimensions {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", ErrMalformedResponse, len(vec), c.dimensions)
	}
	return vec, nil
}
