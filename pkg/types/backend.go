package types

import (
	"errors"
	"iter"
)

// Backend operation errors. Adapters normalize their native failure modes
// onto these so callers can branch on the kind without knowing the backend.
var (
	// ErrNotFound: the referenced entity or link does not exist in the
	// backend at call time.
	ErrNotFound = errors.New("not found")

	// ErrValidation: the backend rejected malformed input against its own
	// schema (empty title, unknown status, bad field name).
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateLink: the exact (source, target, type) triple already
	// exists. Non-fatal; batch operations report it and continue.
	ErrDuplicateLink = errors.New("link already exists")

	// ErrBackendUnavailable: the backend cannot be reached, or answered
	// with a transient failure such as a rate limit. Retry policy is the
	// caller's decision.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ListOptions narrows a List call. Filter is a conjunction of equality
// predicates over entity fields (status, assignee, and label keys). SortBy
// names a single field, ascending. Limit caps the result count; zero means
// unlimited.
type ListOptions struct {
	Filter map[string]string
	SortBy string
	Limit  int
}

// Backend is the contract every storage adapter satisfies. The link graph
// engine and the CLI are written against this interface only; adding a
// backend means implementing it and registering a constructor.
//
// Adapters own identifier formats: they normalize native IDs into the
// opaque tokens used everywhere else, and parse them back on the way in.
// They also own pagination, timeouts, and mapping transient backend errors
// to ErrBackendUnavailable.
type Backend interface {
	// Create persists a new entity and returns it with its backend-assigned
	// ID. Title is required.
	Create(title, description string, labels map[string]string, assignee string) (*Entity, error)

	// Read returns the entity with the given ID, or ErrNotFound.
	Read(id string) (*Entity, error)

	// Update applies a partial update and returns the updated entity.
	// Fields not set in UpdateFields are left unchanged.
	Update(id string, fields UpdateFields) (*Entity, error)

	// Delete removes the entity. Deleting an already-deleted ID returns
	// ErrNotFound so callers can detect stale IDs; IDs are never reused.
	Delete(id string) error

	// List yields entities matching opts as a lazy, finite, non-restartable
	// sequence. A non-nil error terminates the sequence.
	List(opts ListOptions) iter.Seq2[*Entity, error]

	// AddLink persists the (source, target, typ) triple. Returns
	// ErrNotFound if either endpoint is missing and ErrDuplicateLink if the
	// triple already exists.
	AddLink(source, target, typ string) error

	// RemoveLink deletes the triple, or returns ErrNotFound if it does not
	// exist.
	RemoveLink(source, target, typ string) error

	// ListLinks returns every link in which the entity participates as
	// source or target, optionally filtered by type (empty typ = all).
	ListLinks(id, typ string) ([]Link, error)
}
