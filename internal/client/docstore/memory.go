package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/ridekeeper/internal/common"
)

type docKey struct {
	collection string
	id         string
}

// Memory keeps documents in process memory. Stored data is normalised the
// way it would come back from the server: numbers become float64, nested
// values become map[string]any and []any.
type Memory struct {
	mu       sync.Mutex
	docs     map[docKey]Document
	watchers map[docKey]map[chan Change]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[docKey]Document),
		watchers: make(map[docKey]map[chan Change]struct{}),
	}
}

func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return map[string]any{}, nil
	}
	v, err := normalize(m)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// clone returns a deep copy so callers never share maps with the store.
func clone(d Document) Document {
	data, _ := normalizeMap(d.Data)
	d.Data = data
	return d
}

func validate(collection, id string) error {
	if collection == "" || id == "" || strings.Contains(collection, "/") {
		return fmt.Errorf("%w: bad document reference %q/%q", common.ErrorInvalidArgument, collection, id)
	}
	return nil
}

func (m *Memory) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := m.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) Set(_ context.Context, collection, id string, data map[string]any) error {
	if err := validate(collection, id); err != nil {
		return err
	}
	norm, err := normalizeMap(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := docKey{collection, id}
	doc := Document{ID: id, Data: norm, Version: m.docs[k].Version + 1}
	m.docs[k] = doc
	m.notify(k, Change{Kind: ChangeUpdated, Document: doc})
	return nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	if err := validate(collection, id); err != nil {
		return err
	}
	norm, err := normalizeMap(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := docKey{collection, id}
	cur, ok := m.docs[k]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, common.ErrorNotFound)
	}

	data := maps.Clone(cur.Data)
	maps.Copy(data, norm)
	doc := Document{ID: id, Data: data, Version: cur.Version + 1}
	m.docs[k] = doc
	m.notify(k, Change{Kind: ChangeUpdated, Document: doc})
	return nil
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	if err := validate(collection, id); err != nil {
		return Document{}, err
	}

	m.mu.Lock()
	doc, ok := m.docs[docKey{collection, id}]
	m.mu.Unlock()

	if !ok {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, common.ErrorNotFound)
	}
	return clone(doc), nil
}

// Delete removes the document. Deleting a missing document is not an error.
func (m *Memory) Delete(_ context.Context, collection, id string) error {
	if err := validate(collection, id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := docKey{collection, id}
	if _, ok := m.docs[k]; !ok {
		return nil
	}
	delete(m.docs, k)
	m.notify(k, Change{Kind: ChangeDeleted, Document: Document{ID: id}})
	return nil
}

func (m *Memory) Query(_ context.Context, collection string, filters ...Filter) ([]Document, error) {
	want := make([]Filter, 0, len(filters))
	for _, f := range filters {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, err
		}
		want = append(want, Filter{Field: f.Field, Value: v})
	}

	m.mu.Lock()
	var out []Document
	for k, doc := range m.docs {
		if k.collection == collection && matches(doc.Data, want) {
			out = append(out, clone(doc))
		}
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b Document) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

func (m *Memory) Watch(ctx context.Context, collection, id string) (<-chan Change, error) {
	if err := validate(collection, id); err != nil {
		return nil, err
	}

	k := docKey{collection, id}
	ch := make(chan Change, 1)

	m.mu.Lock()
	if doc, ok := m.docs[k]; ok {
		ch <- Change{Kind: ChangeSnapshot, Document: clone(doc)}
	} else {
		ch <- Change{Kind: ChangeDeleted, Document: Document{ID: id}}
	}
	if m.watchers[k] == nil {
		m.watchers[k] = make(map[chan Change]struct{})
	}
	m.watchers[k][ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers[k], ch)
		if len(m.watchers[k]) == 0 {
			delete(m.watchers, k)
		}
		close(ch)
		m.mu.Unlock()
	}()

	return ch, nil
}

// notify must be called with m.mu held. A watcher that has not read the
// previous change only gets the newest one.
func (m *Memory) notify(k docKey, c Change) {
	for ch := range m.watchers[k] {
		msg := Change{Kind: c.Kind, Document: clone(c.Document)}
		select {
		case ch <- msg:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- msg
		}
	}
}
