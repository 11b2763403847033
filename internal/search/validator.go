package search

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
)

// EventLookup reports whether an event exists.
type EventLookup interface {
	EventExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Request is one face search as received from the transport layer.
type Request struct {
	Image       []byte
	Filename    string
	ContentType string
	EventID     string
	// Threshold is nil when the caller did not supply one.
	Threshold *float64
	Caller    *uuid.UUID
	// Oversize is set when the upload exceeded the body limit and was not read.
	Oversize bool
}

// Validated is a request that passed validation.
type Validated struct {
	Image       []byte
	Filename    string
	ContentType string
	EventID     uuid.UUID
	Threshold   float64
}

// Validate checks upload size, media type, threshold and event existence, in that order,
// before any expensive work is done.
func Validate(ctx context.Context, events EventLookup, req Request, defaultThreshold float64) (*Validated, error) {
	if req.Oversize {
		return nil, newError(KindPayloadTooLarge, "file", nil)
	}

	ct := strings.ToLower(strings.TrimSpace(req.ContentType))
	if ct == "" || !strings.HasPrefix(ct, "image/") {
		return nil, newError(KindInvalidMediaType, "file", nil)
	}

	threshold := defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, newError(KindInvalidThreshold, "threshold", nil)
	}

	eventID, err := uuid.Parse(strings.TrimSpace(req.EventID))
	if err != nil {
		return nil, newError(KindEventNotFound, "event_id", nil)
	}
	exists, err := events.EventExists(ctx, eventID)
	if err != nil {
		return nil, newError(KindDatabaseUnavailable, "", err)
	}
	if !exists {
		return nil, newError(KindEventNotFound, "event_id", errors.New("no event "+eventID.String()))
	}

	return &Validated{
		Image:       req.Image,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		EventID:     eventID,
		Threshold:   threshold,
	}, nil
}
