// Package collection maps typed models onto a docstore collection. The
// entity repositories are thin layers over it.
package collection

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ridekeeper/internal/client/docstore"
	"github.com/dmitrijs2005/ridekeeper/internal/client/models"
)

// Typed reads and writes values of T in one collection. setID stores the
// document id on a decoded value, since ids are not part of the fields.
type Typed[T any] struct {
	store docstore.Store
	name  string
	setID func(*T, string)
}

func New[T any](store docstore.Store, name string, setID func(*T, string)) Typed[T] {
	return Typed[T]{store: store, name: name, setID: setID}
}

func (c Typed[T]) Name() string { return c.name }

func (c Typed[T]) decode(doc docstore.Document) (*T, error) {
	v := new(T)
	if err := models.FromFields(doc.Data, v); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", c.name, doc.ID, err)
	}
	c.setID(v, doc.ID)
	return v, nil
}

// Create stores v under id, or under a generated id when id is empty, and
// returns the id used.
func (c Typed[T]) Create(ctx context.Context, id string, v *T) (string, error) {
	fields, err := models.Fields(v)
	if err != nil {
		return "", err
	}
	if id == "" {
		id, err = c.store.Create(ctx, c.name, fields)
		if err != nil {
			return "", err
		}
	} else if err := c.store.Set(ctx, c.name, id, fields); err != nil {
		return "", err
	}
	c.setID(v, id)
	return id, nil
}

func (c Typed[T]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	return c.decode(doc)
}

// Replace merges every field of v into the existing document id.
func (c Typed[T]) Replace(ctx context.Context, id string, v *T) error {
	fields, err := models.Fields(v)
	if err != nil {
		return err
	}
	return c.store.Update(ctx, c.name, id, fields)
}

func (c Typed[T]) Patch(ctx context.Context, id string, fields map[string]any) error {
	return c.store.Update(ctx, c.name, id, fields)
}

func (c Typed[T]) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

func (c Typed[T]) List(ctx context.Context, filters ...docstore.Filter) ([]*T, error) {
	docs, err := c.store.Query(ctx, c.name, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(docs))
	for _, d := range docs {
		v, err := c.decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Watch decodes changes to one document. A nil value means the document
// does not exist. Undecodable changes are dropped.
func (c Typed[T]) Watch(ctx context.Context, id string) (<-chan *T, error) {
	in, err := c.store.Watch(ctx, c.name, id)
	if err != nil {
		return nil, err
	}

	out := make(chan *T, 1)
	go func() {
		defer close(out)
		for ch := range in {
			var v *T
			if ch.Kind != docstore.ChangeDeleted {
				decoded, err := c.decode(ch.Document)
				if err != nil {
					continue
				}
				v = decoded
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
