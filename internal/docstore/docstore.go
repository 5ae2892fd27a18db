// Package docstore is the contract with the remote document database: named
// collections of JSON documents with get/set/partial-update/delete by id, add
// with a generated id, and query by equality filters. All durable state lives
// behind this interface; the core holds request-scoped copies only.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection names used by the core.
const (
	Teachers       = "teachers"
	Students       = "students"
	Classrooms     = "classrooms"
	Subjects       = "subjects"
	Sessions       = "sessions"
	ActiveSessions = "active_sessions"
	Attendance     = "attendance"
	Accounts       = "accounts"
)

// Filter is a single equality predicate on a top-level document field.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter { return Filter{Field: field, Value: value} }

// Doc is a raw query result. Decode it into a typed struct at the boundary;
// field access by string key is deliberately not offered.
type Doc struct {
	ID   string
	Data []byte
}

// Decode unmarshals the document into out, failing loudly on malformed data.
func (d Doc) Decode(out any) error {
	if err := json.Unmarshal(d.Data, out); err != nil {
		return fmt.Errorf("docstore: decode document %s: %w", d.ID, err)
	}
	return nil
}

// Store is the remote document database. Single-document operations are
// assumed atomic; multi-document sequences are not.
type Store interface {
	// Get decodes the document with the given id into out.
	// Returns an apperr.NotFound error when absent.
	Get(ctx context.Context, collection, id string, out any) error
	// Set writes (or overwrites) the document under the given id. The stored
	// document always carries its id in the "id" field.
	Set(ctx context.Context, collection, id string, doc any) error
	// Update merges the given top-level fields into an existing document.
	// Returns an apperr.NotFound error when absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the document. Returns an apperr.NotFound error when absent.
	Delete(ctx context.Context, collection, id string) error
	// Add writes the document under a freshly generated id and returns it.
	Add(ctx context.Context, collection string, doc any) (string, error)
	// Query returns documents matching every filter, up to limit when
	// limit > 0. An empty result is a success, not an error.
	Query(ctx context.Context, collection string, filters []Filter, limit int) ([]Doc, error)
}
