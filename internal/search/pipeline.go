// Package search implements the face-match request pipeline:
// validate, embed, match, assemble.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/embedding"
	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/internal/observability"
	"github.com/your-org/photohub/pkg/dto"
)

type Embedder interface {
	Embed(ctx context.Context, image []byte, filename, contentType string) ([]float32, error)
}

type Matcher interface {
	MatchFaces(ctx context.Context, probe []float32, eventID uuid.UUID, threshold float64, limit int) ([]models.FaceMatch, error)
}

type Recorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

type Options struct {
	// DefaultThreshold applies when a request has none. Zero is a valid value.
	DefaultThreshold float64
	MaxResults       int
	NotifyOnSuccess  bool
}

type Pipeline struct {
	events   EventLookup
	embedder Embedder
	matcher  Matcher
	recorder Recorder
	opts     Options
}

func NewPipeline(events EventLookup, embedder Embedder, matcher Matcher, recorder Recorder, opts Options) *Pipeline {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 50
	}
	return &Pipeline{
		events:   events,
		embedder: embedder,
		matcher:  matcher,
		recorder: recorder,
		opts:     opts,
	}
}

// Search runs one face search. Every failure is returned as a *Error and
// leaves exactly one search_face_failed audit entry behind.
func (p *Pipeline) Search(ctx context.Context, req Request) (*dto.SearchResponse, error) {
	start := time.Now()
	resp, err := p.search(ctx, req)
	observability.SearchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		observability.SearchRequests.WithLabelValues(KindOf(err).Reason()).Inc()
		return nil, err
	}
	observability.SearchRequests.WithLabelValues("ok").Inc()
	observability.SearchMatches.Observe(float64(resp.SearchParams.TotalMatches))
	return resp, nil
}

func (p *Pipeline) search(ctx context.Context, req Request) (*dto.SearchResponse, error) {
	v, err := Validate(ctx, p.events, req, p.opts.DefaultThreshold)
	if err != nil {
		return nil, p.fail(ctx, req, err)
	}

	probe, err := p.embedder.Embed(ctx, v.Image, v.Filename, v.ContentType)
	if err != nil {
		return nil, p.fail(ctx, req, classifyEmbedError(err))
	}

	matches, err := p.matcher.MatchFaces(ctx, probe, v.EventID, v.Threshold, p.opts.MaxResults)
	if err != nil {
		return nil, p.fail(ctx, req, newError(KindDatabaseUnavailable, "", err))
	}

	resp := Assemble(matches, v.EventID, v.Threshold)

	err = p.recorder.Record(ctx, audit.Entry{
		UserID:  req.Caller,
		Action:  audit.ActionSearchFace,
		Details: successDetails(v, resp),
		Notify:  p.opts.NotifyOnSuccess,
	})
	if err != nil {
		return nil, p.fail(ctx, req, newError(KindDatabaseUnavailable, "", err))
	}

	return resp, nil
}

func classifyEmbedError(err error) *Error {
	var statusErr *embedding.StatusError
	switch {
	case errors.As(err, &statusErr):
		e := newError(KindEmbeddingServiceError, "", err)
		e.Audit = map[string]any{
			"status_code":   statusErr.StatusCode,
			"response_body": statusErr.Body,
		}
		return e
	case errors.Is(err, embedding.ErrNoFace):
		return newError(KindNoFaceDetected, "file", err)
	case errors.Is(err, embedding.ErrUnavailable):
		return newError(KindEmbeddingServiceUnavailable, "", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return newError(KindEmbeddingServiceUnavailable, "", err)
	default:
		return newError(KindEmbeddingServiceError, "", err)
	}
}

// fail writes the search_face_failed entry for err and returns it. An audit
// write failure is logged and never replaces err.
func (p *Pipeline) fail(ctx context.Context, req Request, err error) error {
	var se *Error
	if !errors.As(err, &se) {
		se = newError(KindUnknown, "", err)
	}

	details := map[string]any{
		"event_id": req.EventID,
		"filename": req.Filename,
		"reason":   se.Kind.Reason(),
	}
	if req.Threshold != nil {
		t := *req.Threshold
		if math.IsNaN(t) || math.IsInf(t, 0) {
			details["threshold"] = fmt.Sprint(t)
		} else {
			details["threshold"] = t
		}
	}
	if se.Param != "" {
		details["param"] = se.Param
	}
	if se.Err != nil {
		details["error"] = se.Err.Error()
	}
	for k, v := range se.Audit {
		details[k] = v
	}

	rerr := p.recorder.Record(ctx, audit.Entry{
		UserID:  req.Caller,
		Action:  audit.ActionSearchFaceFailed,
		Details: details,
		Notify:  se.Kind.Alerts(),
	})
	if rerr != nil {
		slog.Error("record failed search", "reason", se.Kind.Reason(), "error", rerr)
	}

	slog.Warn("face search failed", "reason", se.Kind.Reason(), "event_id", req.EventID, "error", se)
	return se
}
