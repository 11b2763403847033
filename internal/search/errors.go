package search

import (
	"errors"
	"fmt"
)

// Kind classifies why a face search failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidMediaType
	KindInvalidThreshold
	KindEventNotFound
	KindNoFaceDetected
	KindEmbeddingServiceUnavailable
	KindEmbeddingServiceError
	KindDatabaseUnavailable
	KindPayloadTooLarge
)

var kindReasons = map[Kind]string{
	KindUnknown:                     "internal_error",
	KindInvalidMediaType:            "invalid_media_type",
	KindInvalidThreshold:            "invalid_threshold",
	KindEventNotFound:               "event_not_found",
	KindNoFaceDetected:              "no_face_detected",
	KindEmbeddingServiceUnavailable: "embedding_service_unavailable",
	KindEmbeddingServiceError:       "embedding_service_error",
	KindDatabaseUnavailable:         "database_unavailable",
	KindPayloadTooLarge:             "payload_too_large",
}

// callerDetails are the only texts callers ever see. Dependency errors keep
// their raw text in the audit entry.
var callerDetails = map[Kind]string{
	KindUnknown:                     "Internal error",
	KindInvalidMediaType:            "File must be an image",
	KindInvalidThreshold:            "Threshold must be between 0 and 1",
	KindEventNotFound:               "Event not found",
	KindNoFaceDetected:              "No face detected in the uploaded image",
	KindEmbeddingServiceUnavailable: "Face processing service is unavailable",
	KindEmbeddingServiceError:       "Face processing service returned an error",
	KindDatabaseUnavailable:         "Search is temporarily unavailable",
	KindPayloadTooLarge:             "Upload exceeds the maximum allowed size",
}

// Reason is the short machine-oriented name of the kind.
func (k Kind) Reason() string {
	if r, ok := kindReasons[k]; ok {
		return r
	}
	return kindReasons[KindUnknown]
}

func (k Kind) String() string { return k.Reason() }

// Dependency reports whether the failure lies with an external collaborator.
func (k Kind) Dependency() bool {
	switch k {
	case KindEmbeddingServiceUnavailable, KindEmbeddingServiceError, KindDatabaseUnavailable:
		return true
	}
	return false
}

// Alerts reports whether the failure entry carries an alert attempt: every
// dependency failure, plus any outcome of the embedding call.
func (k Kind) Alerts() bool {
	return k.Dependency() || k == KindNoFaceDetected
}

// Error is the typed failure returned by the search pipeline.
type Error struct {
	Kind  Kind
	Param string
	Err   error
	// Audit holds extra detail stored with the failure entry only.
	Audit map[string]any
}

func newError(kind Kind, param string, err error) *Error {
	return &Error{Kind: kind, Param: param, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind.Reason(), e.Err)
	}
	return e.Kind.Reason()
}

func (e *Error) Unwrap() error { return e.Err }

// Detail is the redacted, caller-facing description.
func (e *Error) Detail() string {
	if d, ok := callerDetails[e.Kind]; ok {
		return d
	}
	return callerDetails[KindUnknown]
}

// KindOf returns the Kind of err, or KindUnknown when err is not a *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
