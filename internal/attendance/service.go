// Package attendance is the ledger of per-(session, student) attendance
// records, plus the student-submission workflow that gates writes on face
// verification. Absence of a record means ABSENT.
package attendance

import (
	"context"
	"encoding/base64"
	"log"
	"time"

	"classlogger/internal/apperr"
	"classlogger/internal/directory"
	"classlogger/internal/model"
	"classlogger/internal/queue"
	"classlogger/internal/session"
)

// DefaultThreshold is the fixed confidence floor a face match must clear for
// a student submission to be accepted. Policy constant, not derived.
const DefaultThreshold = 0.7

// FaceVerifier identifies the person in a selfie. Implemented by
// faceclient.Client.
type FaceVerifier interface {
	Predict(ctx context.Context, image []byte) (label string, confidence float64, err error)
}

// StudentAttendance pairs a rostered student with their attendance record,
// synthetic ABSENT when none exists.
type StudentAttendance struct {
	Student    model.Student    `json:"student"`
	Attendance model.Attendance `json:"attendance"`
}

// Service coordinates attendance marking, teacher overrides and roster views.
type Service struct {
	repo      *Repository
	sessions  *session.Repository
	dir       *directory.Directory
	face      FaceVerifier
	uploads   queue.Queue
	threshold float64
	skip      bool
	now       func() time.Time
}

// NewService creates a service. uploads may be nil when selfie CDN offload
// is not configured. With skipVerification set the face gate is bypassed
// (dev only).
func NewService(repo *Repository, sessions *session.Repository, dir *directory.Directory, face FaceVerifier, uploads queue.Queue, threshold float64, skipVerification bool) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{
		repo:      repo,
		sessions:  sessions,
		dir:       dir,
		face:      face,
		uploads:   uploads,
		threshold: threshold,
		skip:      skipVerification,
		now:       time.Now,
	}
}

// SubmitSelfie runs the student attendance workflow: verify the selfie
// against the student's registered face, then mark PRESENT. The submission
// is accepted only when the service labels the image as the submitting
// student's own id with confidence at or above the threshold; otherwise
// nothing is written.
func (s *Service) SubmitSelfie(ctx context.Context, sessionID, studentID string, selfie []byte) (model.Attendance, error) {
	score := 1.0
	if !s.skip {
		label, confidence, err := s.face.Predict(ctx, selfie)
		if err != nil {
			verifications.WithLabelValues("error").Inc()
			return model.Attendance{}, err
		}
		if label != studentID {
			verifications.WithLabelValues("rejected_identity").Inc()
			return model.Attendance{}, apperr.New(apperr.Verification, "face does not match the registered student")
		}
		if confidence < s.threshold {
			verifications.WithLabelValues("rejected_confidence").Inc()
			return model.Attendance{}, apperr.Newf(apperr.Verification, "face match confidence %.2f below required %.2f", confidence, s.threshold)
		}
		verifications.WithLabelValues("accepted").Inc()
		score = confidence
	}

	rec, err := s.Mark(ctx, sessionID, studentID, selfie, score)
	if err != nil {
		return model.Attendance{}, err
	}

	if s.uploads != nil {
		msg := queue.Message{Type: queue.TypeSelfieUpload, Body: []byte(rec.ID)}
		if err := s.uploads.Publish(ctx, msg); err != nil {
			log.Printf("selfie upload enqueue failed for %s: %v", rec.ID, err)
		}
	}
	return rec, nil
}

// Mark writes a PRESENT record authored by the student, with the selfie
// payload and the verification score that admitted it.
func (s *Service) Mark(ctx context.Context, sessionID, studentID string, selfie []byte, score float64) (model.Attendance, error) {
	rec := model.Attendance{
		ID:                RecordID(sessionID, studentID),
		SessionID:         sessionID,
		StudentID:         studentID,
		Status:            model.Present,
		MarkedAt:          s.now().UnixMilli(),
		MarkedBy:          model.ByStudent,
		Selfie:            base64.StdEncoding.EncodeToString(selfie),
		VerificationScore: score,
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return model.Attendance{}, err
	}
	return rec, nil
}

// Override sets the authoritative status for a (session, student) pair by
// teacher action. An existing record keeps its selfie fields; a missing one
// is created fresh. Either way the write lands on the pair's single
// document, so a repeat override simply wins.
func (s *Service) Override(ctx context.Context, sessionID, studentID string, status model.AttendanceStatus, teacherID string) error {
	if status != model.Present && status != model.Absent {
		return apperr.Newf(apperr.Validation, "unknown attendance status %q", status)
	}

	rec := model.Attendance{
		SessionID: sessionID,
		StudentID: studentID,
	}
	if existing, err := s.repo.Find(ctx, sessionID, studentID); err != nil {
		return err
	} else if existing != nil {
		rec = *existing
	}

	rec.Status = status
	rec.MarkedBy = model.ByTeacher
	rec.OverriddenBy = teacherID
	rec.MarkedAt = s.now().UnixMilli()
	return s.repo.Upsert(ctx, rec)
}

// SessionAttendance returns one (student, record) pair for every student
// enrolled in the session's classroom, substituting an unpersisted ABSENT
// record where none exists. Output length always equals roster size.
func (s *Service) SessionAttendance(ctx context.Context, sessionID string) ([]StudentAttendance, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	classroom, err := s.dir.Classroom(ctx, sess.ClassroomID)
	if err != nil {
		return nil, err
	}

	roster := make([]StudentAttendance, 0, len(classroom.Students))
	for _, studentID := range classroom.Students {
		student, err := s.dir.Student(ctx, studentID)
		if err != nil {
			return nil, err
		}
		rec, err := s.repo.Find(ctx, sessionID, studentID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			rec = &model.Attendance{
				SessionID: sessionID,
				StudentID: studentID,
				Status:    model.Absent,
			}
		}
		roster = append(roster, StudentAttendance{Student: student, Attendance: *rec})
	}
	return roster, nil
}
