package docstore

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"classlogger/internal/apperr"
)

// Memory is an in-process Store for tests and dev. Semantics mirror the
// Postgres backend: ids are injected into stored documents, queries match
// top-level fields after JSON normalization, results are id-ordered.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, collection, id string, out any) error {
	m.mu.RLock()
	raw, ok := m.collections[collection][id]
	m.mu.RUnlock()
	if !ok {
		return apperr.Newf(apperr.NotFound, "%s/%s not found", collection, id)
	}
	return Doc{ID: id, Data: raw}.Decode(out)
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := withID(doc, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string][]byte)
	}
	m.collections[collection][id] = raw
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.collections[collection][id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "%s/%s not found", collection, id)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.collections[collection][id] = merged
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection][id]; !ok {
		return apperr.Newf(apperr.NotFound, "%s/%s not found", collection, id)
	}
	delete(m.collections[collection], id)
	return nil
}

func (m *Memory) Add(ctx context.Context, collection string, doc any) (string, error) {
	id := uuid.NewString()
	if err := m.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) Query(ctx context.Context, collection string, filters []Filter, limit int) ([]Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.collections[collection]))
	for id := range m.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var docs []Doc
	for _, id := range ids {
		raw := m.collections[collection][id]
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		if !matches(doc, filters) {
			continue
		}
		docs = append(docs, Doc{ID: id, Data: raw})
		if limit > 0 && len(docs) == limit {
			break
		}
	}
	return docs, nil
}

func matches(doc map[string]any, filters []Filter) bool {
	for _, f := range filters {
		want, err := normalize(f.Value)
		if err != nil {
			return false
		}
		if !reflect.DeepEqual(doc[f.Field], want) {
			return false
		}
	}
	return true
}

// normalize round-trips a value through JSON so filter values compare equal
// to unmarshaled document fields (ints become float64, and so on).
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func withID(doc any, id string) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["id"] = id
	return json.Marshal(m)
}
