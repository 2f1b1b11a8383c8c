// Package documents stores JSON documents grouped by collection.
package documents

import (
	"context"

	"github.com/dmitrijs2005/ridekeeper/internal/docrpc"
)

type Repository interface {
	// Create stores data under a generated id.
	Create(ctx context.Context, collection string, data map[string]any) (docrpc.Document, error)
	// Set creates or replaces the document.
	Set(ctx context.Context, collection, id string, data map[string]any) (docrpc.Document, error)
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) (docrpc.Document, error)
	Get(ctx context.Context, collection, id string) (docrpc.Document, error)
	Delete(ctx context.Context, collection, id string) error
	// Query returns the documents matching every filter, ordered by id.
	Query(ctx context.Context, collection string, filters []docrpc.Filter) ([]docrpc.Document, error)
}
