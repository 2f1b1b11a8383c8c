package documents

import (
	"context"
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/dmitrijs2005/ridekeeper/internal/common"
	"github.com/dmitrijs2005/ridekeeper/internal/docrpc"
)

// MemoryRepository keeps documents in process memory. The server uses it
// when no database DSN is configured.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]map[string]docrpc.Document
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string]map[string]docrpc.Document)}
}

// normalize gives data the shape it has after a jsonb round trip.
func normalize(v any) (any, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, common.ErrorInvalidArgument
	}
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeMap(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	v, err := normalize(data)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func clone(d docrpc.Document) docrpc.Document {
	d.Data = maps.Clone(d.Data)
	return d
}

func (r *MemoryRepository) put(collection string, doc docrpc.Document) {
	if r.docs[collection] == nil {
		r.docs[collection] = make(map[string]docrpc.Document)
	}
	r.docs[collection][doc.ID] = doc
}

func (r *MemoryRepository) Create(ctx context.Context, collection string, data map[string]any) (docrpc.Document, error) {
	norm, err := normalizeMap(data)
	if err != nil {
		return docrpc.Document{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := newID()
	if _, ok := r.docs[collection][id]; ok {
		return docrpc.Document{}, common.ErrorAlreadyExists
	}
	doc := docrpc.Document{ID: id, Data: norm, Version: 1}
	r.put(collection, doc)
	return clone(doc), nil
}

func (r *MemoryRepository) Set(ctx context.Context, collection, id string, data map[string]any) (docrpc.Document, error) {
	norm, err := normalizeMap(data)
	if err != nil {
		return docrpc.Document{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc := docrpc.Document{ID: id, Data: norm, Version: r.docs[collection][id].Version + 1}
	r.put(collection, doc)
	return clone(doc), nil
}

func (r *MemoryRepository) Update(ctx context.Context, collection, id string, fields map[string]any) (docrpc.Document, error) {
	norm, err := normalizeMap(fields)
	if err != nil {
		return docrpc.Document{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.docs[collection][id]
	if !ok {
		return docrpc.Document{}, common.ErrorNotFound
	}
	data := maps.Clone(cur.Data)
	maps.Copy(data, norm)
	doc := docrpc.Document{ID: id, Data: data, Version: cur.Version + 1}
	r.put(collection, doc)
	return clone(doc), nil
}

func (r *MemoryRepository) Get(ctx context.Context, collection, id string) (docrpc.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[collection][id]
	if !ok {
		return docrpc.Document{}, common.ErrorNotFound
	}
	return clone(doc), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[collection][id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.docs[collection], id)
	return nil
}

func (r *MemoryRepository) Query(ctx context.Context, collection string, filters []docrpc.Filter) ([]docrpc.Document, error) {
	want := make([]docrpc.Filter, 0, len(filters))
	for _, f := range filters {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, err
		}
		want = append(want, docrpc.Filter{Field: f.Field, Value: v})
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(r.docs[collection]))
	var out []docrpc.Document
	for _, id := range ids {
		doc := r.docs[collection][id]
		if matches(doc.Data, want) {
			out = append(out, clone(doc))
		}
	}
	return out, nil
}

func matches(data map[string]any, filters []docrpc.Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}
