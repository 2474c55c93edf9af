package service

import (
	"errors"

	"github.com/annazecevic/album-service/domain"
	"github.com/annazecevic/album-service/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

// Kind is the closed set of failures an album operation can report.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindInvalid     Kind = "invalid"
	KindUnavailable Kind = "unavailable"
)

const (
	detailNotFound    = "Album not found"
	detailConflict    = "an album with this title already exists"
	detailUnavailable = "album store unavailable"
)

type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Detail + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

func NewInvalid(err error) *Error {
	return &Error{Kind: KindInvalid, Detail: err.Error(), Err: err}
}

// KindOf reports the kind of err. Errors that did not come from this
// package are treated as unavailable.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnavailable
}

// classify maps a repository error onto the closed kind set. Timeouts,
// network failures and server errors all become unavailable.
func classify(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, repository.ErrInvalidID):
		return &Error{Kind: KindNotFound, Detail: detailNotFound, Err: err}
	case mongo.IsDuplicateKeyError(err):
		return &Error{Kind: KindConflict, Detail: detailConflict, Err: err}
	case errors.As(err, &ve):
		return NewInvalid(ve)
	default:
		return &Error{Kind: KindUnavailable, Detail: detailUnavailable, Err: err}
	}
}
