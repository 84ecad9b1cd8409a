// Package store persists challenge records. Two backends implement Store: a
// MongoDB collection (the production deployment) and an embedded SQLite file
// for local use.
//
// Uniqueness of challenge names and flag hashes is enforced by callers with an
// Exists check before Insert. The two calls are not atomic, so two operators
// adding the same challenge at the same moment can both succeed.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/frigidsec/ctfadmin/internal/constants"
)

// Challenge is a named competition task and the keyed hash of its flag.
type Challenge struct {
	ID       string `json:"id"`
	Name     string `json:"challengeName"`
	FlagHash string `json:"flagHash"`
}

// Filter selects records whose name OR flag hash matches. Empty fields are
// ignored; a filter with no fields set is rejected.
type Filter struct {
	Name     string
	FlagHash string
}

func ByName(name string) Filter {
	return Filter{Name: name}
}

func ByNameOrHash(name, flagHash string) Filter {
	return Filter{Name: name, FlagHash: flagHash}
}

func (f Filter) IsEmpty() bool {
	return f.Name == "" && f.FlagHash == ""
}

func (f Filter) String() string {
	switch {
	case f.Name != "" && f.FlagHash != "":
		return fmt.Sprintf("challengeName=%q OR flagHash=%s", f.Name, f.FlagHash)
	case f.Name != "":
		return fmt.Sprintf("challengeName=%q", f.Name)
	case f.FlagHash != "":
		return fmt.Sprintf("flagHash=%s", f.FlagHash)
	}
	return "<empty>"
}

var (
	// ErrNotFound is returned by FindOne when nothing matches.
	ErrNotFound = errors.New("challenge not found")

	// ErrEmptyFilter guards against a filter that would match every record.
	ErrEmptyFilter = errors.New("filter has no fields set")
)

// Error wraps any backend failure with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Store is a single collection of challenges. Every method is one round trip.
type Store interface {
	Exists(ctx context.Context, f Filter) (bool, error)
	FindOne(ctx context.Context, f Filter) (*Challenge, error)
	FindAll(ctx context.Context) ([]Challenge, error)
	Insert(ctx context.Context, c *Challenge) (string, error)
	DeleteOne(ctx context.Context, f Filter) (int64, error)
	Close(ctx context.Context) error
}

// Options selects and configures a backend.
type Options struct {
	Backend    string
	MongoURI   string
	Database   string
	Collection string
	SQLitePath string
}

// Open connects to the configured backend. The caller owns the returned Store
// and must Close it.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case constants.BackendMongo, "":
		s, err := OpenMongo(ctx, opts.MongoURI, opts.Database, opts.Collection)
		if err != nil {
			return nil, err
		}
		return s, nil
	case constants.BackendSQLite:
		s, err := OpenSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (expected %q or %q)",
			opts.Backend, constants.BackendMongo, constants.BackendSQLite)
	}
}
