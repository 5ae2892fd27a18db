package session

import (
	"context"

	"classlogger/internal/docstore"
	"classlogger/internal/model"
)

// Repository persists sessions in the remote store. Every session is written
// to the full sessions collection; currently-open sessions are additionally
// indexed in active_sessions so per-classroom listings avoid a full scan.
type Repository struct {
	store docstore.Store
}

// NewRepository creates a repo.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Insert writes the session to the primary collection and the active index.
// If the index write fails after the primary write succeeded, the session
// exists but is invisible to active listings; the error is surfaced and the
// inconsistency is not corrected automatically.
func (r *Repository) Insert(ctx context.Context, s model.Session) error {
	if err := r.store.Set(ctx, docstore.Sessions, s.ID, s); err != nil {
		return err
	}
	return r.store.Set(ctx, docstore.ActiveSessions, s.ID, s)
}

// Get returns the session from the primary collection.
func (r *Repository) Get(ctx context.Context, id string) (model.Session, error) {
	var s model.Session
	if err := r.store.Get(ctx, docstore.Sessions, id, &s); err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// Close marks the session CLOSED with the window cleared and removes the
// active index entry. The index deletion may report not-found on a repeat
// close; the closed end state is the same either way.
func (r *Repository) Close(ctx context.Context, id string) error {
	fields := map[string]any{
		"status":           model.SessionClosed,
		"attendanceWindow": false,
	}
	if err := r.store.Update(ctx, docstore.Sessions, id, fields); err != nil {
		return err
	}
	return r.store.Delete(ctx, docstore.ActiveSessions, id)
}

// ActiveByClassroom lists open-window sessions for one classroom from the
// active index.
func (r *Repository) ActiveByClassroom(ctx context.Context, classroomID string) ([]model.Session, error) {
	docs, err := r.store.Query(ctx, docstore.ActiveSessions, []docstore.Filter{
		docstore.Eq("classroomId", classroomID),
		docstore.Eq("attendanceWindow", true),
	}, 0)
	if err != nil {
		return nil, err
	}
	return decodeSessions(docs)
}

// BySubject lists every session ever held for a subject, from the full
// history collection.
func (r *Repository) BySubject(ctx context.Context, subjectID string) ([]model.Session, error) {
	docs, err := r.store.Query(ctx, docstore.Sessions, []docstore.Filter{
		docstore.Eq("subjectId", subjectID),
	}, 0)
	if err != nil {
		return nil, err
	}
	return decodeSessions(docs)
}

func decodeSessions(docs []docstore.Doc) ([]model.Session, error) {
	sessions := make([]model.Session, 0, len(docs))
	for _, d := range docs {
		var s model.Session
		if err := d.Decode(&s); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
