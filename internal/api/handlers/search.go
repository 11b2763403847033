package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/photohub/internal/search"
	"github.com/your-org/photohub/pkg/dto"
)

type Searcher interface {
	Search(ctx context.Context, req search.Request) (*dto.SearchResponse, error)
}

type SearchHandler struct {
	searcher Searcher
}

func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

const multipartMemory = 32 << 20

// SearchFace handles POST /v1/search_face (multipart: file, event_id, threshold).
// Input checks happen in the pipeline so every rejection is audited.
func (h *SearchHandler) SearchFace(c *gin.Context) {
	req := search.Request{Caller: callerID(c)}

	// Other parse errors leave the fields empty and are rejected downstream.
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			req.Oversize = true
			h.search(c, req)
			return
		}
	}

	req.EventID = c.PostForm("event_id")

	if raw := strings.TrimSpace(c.PostForm("threshold")); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			t = math.NaN()
		}
		req.Threshold = &t
	}

	if header, err := c.FormFile("file"); err == nil {
		req.Filename = header.Filename
		req.ContentType = header.Header.Get("Content-Type")

		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: "Could not read upload", Reason: "invalid_upload", Param: "file"})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: "Could not read upload", Reason: "invalid_upload", Param: "file"})
			return
		}
		req.Image = data
	}

	h.search(c, req)
}

func (h *SearchHandler) search(c *gin.Context, req search.Request) {
	resp, err := h.searcher.Search(c.Request.Context(), req)
	if err != nil {
		writeSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func searchErrorStatus(kind search.Kind) int {
	switch kind {
	case search.KindInvalidMediaType, search.KindInvalidThreshold:
		return http.StatusBadRequest
	case search.KindEventNotFound:
		return http.StatusNotFound
	case search.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case search.KindNoFaceDetected:
		return http.StatusUnprocessableEntity
	case search.KindEmbeddingServiceUnavailable, search.KindDatabaseUnavailable:
		return http.StatusServiceUnavailable
	case search.KindEmbeddingServiceError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeSearchError is the only place pipeline errors become HTTP responses.
// Callers get the redacted detail; dependency text stays in the audit log.
func writeSearchError(c *gin.Context, err error) {
	var se *search.Error
	if !errors.As(err, &se) {
		slog.Error("unexpected search error", "error", err)
		se = &search.Error{Kind: search.KindUnknown, Err: err}
	}
	c.JSON(searchErrorStatus(se.Kind), dto.ErrorResponse{
		Detail: se.Detail(),
		Reason: se.Kind.Reason(),
		Param:  se.Param,
	})
}
