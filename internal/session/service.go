// Package session manages the class session lifecycle: ACTIVE with an open
// attendance window at creation, CLOSED terminal, never reopened.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"classlogger/internal/apperr"
	"classlogger/internal/directory"
	"classlogger/internal/model"
)

// Service coordinates session creation, closing and student-facing listings.
type Service struct {
	repo *Repository
	dir  *directory.Directory
	now  func() time.Time
}

// NewService creates a service backed by a repository and directory.
func NewService(repo *Repository, dir *directory.Directory) *Service {
	return &Service{repo: repo, dir: dir, now: time.Now}
}

// Create opens a new session and returns its id. The WiFi pair is stored as
// an immutable snapshot of the network that was live at creation; students
// are verified against it later, not against the classroom's current
// configuration. The caller must already have verified that the creating
// device is on the classroom's expected network; Create does not re-verify.
func (s *Service) Create(ctx context.Context, teacherID, subjectID, classroomID string, startTime, endTime int64, wifiSSID, wifiBSSID string) (string, error) {
	if teacherID == "" || subjectID == "" || classroomID == "" {
		return "", apperr.New(apperr.Validation, "teacher, subject and classroom are required")
	}
	if wifiSSID == "" || wifiBSSID == "" {
		return "", apperr.New(apperr.Validation, "wifi network snapshot is required")
	}

	now := s.now()
	sess := model.Session{
		ID:               uuid.NewString(),
		TeacherID:        teacherID,
		SubjectID:        subjectID,
		ClassroomID:      classroomID,
		Date:             now.Format("2006-01-02"),
		StartTime:        startTime,
		EndTime:          endTime,
		Status:           model.SessionActive,
		WifiSSID:         wifiSSID,
		WifiBSSID:        wifiBSSID,
		AttendanceWindow: true,
		CreatedAt:        now.UnixMilli(),
	}
	if err := s.repo.Insert(ctx, sess); err != nil {
		return "", err
	}
	sessionEvents.WithLabelValues("created").Inc()
	return sess.ID, nil
}

// Close transitions the session to CLOSED and clears the attendance window.
// Closing an already-closed session yields the same end state, though the
// index deletion may report not-found.
func (s *Service) Close(ctx context.Context, id string) error {
	if err := s.repo.Close(ctx, id); err != nil {
		return err
	}
	sessionEvents.WithLabelValues("closed").Inc()
	return nil
}

// Get returns one session by id.
func (s *Service) Get(ctx context.Context, id string) (model.Session, error) {
	return s.repo.Get(ctx, id)
}

// ActiveForStudent lists open-window sessions across the student's classroom
// memberships, hydrated with subject, teacher and classroom display names.
// No matching sessions is an empty list, not an error.
func (s *Service) ActiveForStudent(ctx context.Context, studentID string) ([]model.ActiveSession, error) {
	student, err := s.dir.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	active := make([]model.ActiveSession, 0)
	for _, classroomID := range student.Classrooms {
		sessions, err := s.repo.ActiveByClassroom(ctx, classroomID)
		if err != nil {
			return nil, err
		}
		for _, sess := range sessions {
			active = append(active, model.ActiveSession{
				SessionID:     sess.ID,
				SubjectName:   s.dir.SubjectName(ctx, sess.SubjectID),
				TeacherName:   s.dir.TeacherName(ctx, sess.TeacherID),
				ClassroomName: s.dir.ClassroomName(ctx, sess.ClassroomID),
				StartTime:     sess.StartTime,
				EndTime:       sess.EndTime,
			})
		}
	}
	return active, nil
}
