package docstore

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/ridekeeper/internal/docrpc"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

type (
	Document   = docrpc.Document
	Filter     = docrpc.Filter
	Change     = docrpc.Change
	ChangeKind = docrpc.ChangeKind
)

const (
	ChangeSnapshot = docrpc.ChangeSnapshot
	ChangeUpdated  = docrpc.ChangeUpdated
	ChangeDeleted  = docrpc.ChangeDeleted
)

// Eq matches documents whose top-level field equals value.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Store is a collection-oriented document database.
type Store interface {
	// Create inserts data under a generated id and returns it.
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	// Set creates or fully replaces the document.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Get(ctx context.Context, collection, id string) (Document, error)
	Delete(ctx context.Context, collection, id string) error
	// Query returns the documents matching all filters.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Watch delivers the current state of the document and then every
	// change until ctx is done, when the channel is closed.
	Watch(ctx context.Context, collection, id string) (<-chan Change, error)
}
