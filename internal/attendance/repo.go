package attendance

import (
	"context"
	"crypto/sha1"
	"encoding/hex"

	"classlogger/internal/apperr"
	"classlogger/internal/docstore"
	"classlogger/internal/model"
)

// RecordID derives the attendance document id from the (session, student)
// pair. A deterministic id makes every write for the pair land on the same
// document, so the at-most-one-record invariant holds under concurrent
// writers without a query-before-write.
func RecordID(sessionID, studentID string) string {
	h := sha1.Sum([]byte(sessionID + "\x00" + studentID))
	return hex.EncodeToString(h[:])
}

// Repository persists attendance records in the remote store.
type Repository struct {
	store docstore.Store
}

// NewRepository creates a repo.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Upsert writes the authoritative record for its (session, student) pair.
func (r *Repository) Upsert(ctx context.Context, a model.Attendance) error {
	if a.SessionID == "" || a.StudentID == "" {
		return apperr.New(apperr.Validation, "session and student are required")
	}
	a.ID = RecordID(a.SessionID, a.StudentID)
	return r.store.Set(ctx, docstore.Attendance, a.ID, a)
}

// Find returns the record for a (session, student) pair, or nil when none
// exists. Absence is not an error; it means ABSENT.
func (r *Repository) Find(ctx context.Context, sessionID, studentID string) (*model.Attendance, error) {
	var a model.Attendance
	err := r.store.Get(ctx, docstore.Attendance, RecordID(sessionID, studentID), &a)
	if apperr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Get returns a record by document id.
func (r *Repository) Get(ctx context.Context, id string) (model.Attendance, error) {
	var a model.Attendance
	if err := r.store.Get(ctx, docstore.Attendance, id, &a); err != nil {
		return model.Attendance{}, err
	}
	return a, nil
}

// Patch merges fields into an existing record. Used by the upload worker to
// swap the inline selfie payload for its CDN URL.
func (r *Repository) Patch(ctx context.Context, id string, fields map[string]any) error {
	return r.store.Update(ctx, docstore.Attendance, id, fields)
}
