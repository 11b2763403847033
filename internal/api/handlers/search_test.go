package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/search"
	"github.com/your-org/photohub/pkg/dto"
)

type fakeSearcher struct {
	got  search.Request
	resp *dto.SearchResponse
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) (*dto.SearchResponse, error) {
	f.got = req
	return f.resp, f.err
}

func newSearchRouter(s Searcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/search_face", NewSearchHandler(s).SearchFace)
	return r
}

func multipartSearch(t *testing.T, fields map[string]string, file []byte, contentType string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="probe.jpg"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(file)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/search_face", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestSearchFacePassesFormThrough(t *testing.T) {
	eventID := uuid.New()
	s := &fakeSearcher{resp: &dto.SearchResponse{
		Results:      []dto.SearchResult{},
		SearchParams: dto.SearchParams{EventID: eventID, Threshold: 0.7},
	}}
	r := newSearchRouter(s)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartSearch(t, map[string]string{
		"event_id":  eventID.String(),
		"threshold": "0.7",
	}, []byte("jpegbytes"), "image/jpeg"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if s.got.EventID != eventID.String() || s.got.Filename != "probe.jpg" || s.got.ContentType != "image/jpeg" {
		t.Errorf("request = %+v", s.got)
	}
	if string(s.got.Image) != "jpegbytes" {
		t.Errorf("image = %q", s.got.Image)
	}
	if s.got.Threshold == nil || *s.got.Threshold != 0.7 {
		t.Errorf("threshold = %v", s.got.Threshold)
	}
}

func TestSearchFaceThresholdParsing(t *testing.T) {
	s := &fakeSearcher{resp: &dto.SearchResponse{Results: []dto.SearchResult{}}}
	r := newSearchRouter(s)

	r.ServeHTTP(httptest.NewRecorder(), multipartSearch(t, map[string]string{"event_id": "x"}, []byte("a"), "image/png"))
	if s.got.Threshold != nil {
		t.Errorf("absent threshold = %v, want nil", *s.got.Threshold)
	}

	r.ServeHTTP(httptest.NewRecorder(), multipartSearch(t, map[string]string{"threshold": "high"}, []byte("a"), "image/png"))
	if s.got.Threshold == nil || !math.IsNaN(*s.got.Threshold) {
		t.Errorf("unparsable threshold = %v, want NaN", s.got.Threshold)
	}
}

func TestSearchFaceErrorMapping(t *testing.T) {
	tests := []struct {
		kind   search.Kind
		status int
	}{
		{search.KindInvalidMediaType, http.StatusBadRequest},
		{search.KindInvalidThreshold, http.StatusBadRequest},
		{search.KindEventNotFound, http.StatusNotFound},
		{search.KindPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{search.KindNoFaceDetected, http.StatusUnprocessableEntity},
		{search.KindEmbeddingServiceUnavailable, http.StatusServiceUnavailable},
		{search.KindEmbeddingServiceError, http.StatusBadGateway},
		{search.KindDatabaseUnavailable, http.StatusServiceUnavailable},
		{search.KindUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.Reason(), func(t *testing.T) {
			s := &fakeSearcher{err: &search.Error{
				Kind: tt.kind,
				Err:  errors.New("dial tcp 10.0.0.5:5432: connection refused"),
			}}
			rec := httptest.NewRecorder()
			newSearchRouter(s).ServeHTTP(rec, multipartSearch(t, nil, []byte("a"), "image/jpeg"))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body dto.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Reason != tt.kind.Reason() {
				t.Errorf("reason = %q, want %q", body.Reason, tt.kind.Reason())
			}
			if bytes.Contains(rec.Body.Bytes(), []byte("10.0.0.5")) {
				t.Errorf("response leaks internal error: %s", rec.Body.String())
			}
		})
	}
}

func TestSearchFaceNonPipelineError(t *testing.T) {
	s := &fakeSearcher{err: errors.New("boom")}
	rec := httptest.NewRecorder()
	newSearchRouter(s).ServeHTTP(rec, multipartSearch(t, nil, []byte("a"), "image/jpeg"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestSearchFaceOversizeUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &fakeSearcher{err: &search.Error{Kind: search.KindPayloadTooLarge, Param: "file"}}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 64)
		c.Next()
	})
	r.POST("/v1/search_face", NewSearchHandler(s).SearchFace)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartSearch(t, map[string]string{"event_id": uuid.NewString()}, bytes.Repeat([]byte("x"), 4096), "image/jpeg"))

	if !s.got.Oversize {
		t.Error("oversize upload was not flagged")
	}
	if len(s.got.Image) != 0 {
		t.Errorf("image bytes passed through: %d", len(s.got.Image))
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Reason != "payload_too_large" || body.Param != "file" {
		t.Errorf("body = %+v", body)
	}
}
