package attendance

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"classlogger/internal/apperr"
	"classlogger/internal/directory"
	"classlogger/internal/docstore"
	"classlogger/internal/model"
	"classlogger/internal/session"
)

// fakeVerifier returns a fixed prediction.
type fakeVerifier struct {
	label      string
	confidence float64
	err        error
}

func (f fakeVerifier) Predict(ctx context.Context, image []byte) (string, float64, error) {
	return f.label, f.confidence, f.err
}

type fixture struct {
	store     *docstore.Memory
	svc       *Service
	sessionID string
}

func newFixture(t *testing.T, face FaceVerifier) *fixture {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemory()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(store.Set(ctx, docstore.Teachers, "t1", model.Teacher{ID: "t1", Name: "Ms. Rao", Classrooms: []string{"c1"}}))
	must(store.Set(ctx, docstore.Students, "s1", model.Student{ID: "s1", Name: "Asha", Classrooms: []string{"c1"}}))
	must(store.Set(ctx, docstore.Students, "s2", model.Student{ID: "s2", Name: "Ben", Classrooms: []string{"c1"}}))
	must(store.Set(ctx, docstore.Classrooms, "c1", model.Classroom{
		ID: "c1", Name: "Room 101",
		WifiSSID: "ClassroomA", WifiBSSID: "aa:bb:cc:dd:ee:ff",
		Students: []string{"s1", "s2"}, Subjects: []string{"sub1"},
	}))
	must(store.Set(ctx, docstore.Subjects, "sub1", model.Subject{ID: "sub1", Name: "Physics", Code: "PHY101", ClassroomID: "c1"}))

	sessionRepo := session.NewRepository(store)
	sess := model.Session{
		ID: "sess1", TeacherID: "t1", SubjectID: "sub1", ClassroomID: "c1",
		Date: "2024-03-15", StartTime: 1000, EndTime: 2000,
		Status: model.SessionActive, WifiSSID: "ClassroomA", WifiBSSID: "aa:bb:cc:dd:ee:ff",
		AttendanceWindow: true,
	}
	must(sessionRepo.Insert(ctx, sess))

	dir := directory.New(store)
	svc := NewService(NewRepository(store), sessionRepo, dir, face, nil, DefaultThreshold, false)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) }

	return &fixture{store: store, svc: svc, sessionID: sess.ID}
}

func countRecords(t *testing.T, store *docstore.Memory, sessionID, studentID string) int {
	t.Helper()
	docs, err := store.Query(context.Background(), docstore.Attendance, []docstore.Filter{
		docstore.Eq("sessionId", sessionID),
		docstore.Eq("studentId", studentID),
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	return len(docs)
}

func TestSubmitSelfieAccepted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fakeVerifier{label: "s1", confidence: 0.85})

	selfie := []byte{0xff, 0xd8, 0xff}
	rec, err := f.svc.SubmitSelfie(ctx, f.sessionID, "s1", selfie)
	if err != nil {
		t.Fatalf("SubmitSelfie: %v", err)
	}
	if rec.Status != model.Present || rec.MarkedBy != model.ByStudent {
		t.Errorf("record = %s by %s, want PRESENT by STUDENT", rec.Status, rec.MarkedBy)
	}
	if rec.VerificationScore != 0.85 {
		t.Errorf("score = %v, want 0.85", rec.VerificationScore)
	}
	if rec.Selfie != base64.StdEncoding.EncodeToString(selfie) {
		t.Errorf("selfie payload not stored")
	}
	if n := countRecords(t, f.store, f.sessionID, "s1"); n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
}

func TestSubmitSelfieUnknownLabelRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fakeVerifier{label: "unknown", confidence: 0.9})

	_, err := f.svc.SubmitSelfie(ctx, f.sessionID, "s1", []byte{1})
	if apperr.KindOf(err) != apperr.Verification {
		t.Fatalf("SubmitSelfie = %v, want Verification", err)
	}
	if n := countRecords(t, f.store, f.sessionID, "s1"); n != 0 {
		t.Errorf("records = %d, want 0 after rejection", n)
	}

	// the roster still lists the student, with a synthetic ABSENT entry
	roster, err := f.svc.SessionAttendance(ctx, f.sessionID)
	if err != nil {
		t.Fatalf("SessionAttendance: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("roster = %d, want 2", len(roster))
	}
	for _, pair := range roster {
		if pair.Attendance.Status != model.Absent {
			t.Errorf("student %s = %s, want ABSENT", pair.Student.ID, pair.Attendance.Status)
		}
		if pair.Attendance.ID != "" {
			t.Errorf("synthetic record for %s has persisted id %q", pair.Student.ID, pair.Attendance.ID)
		}
	}
}

func TestSubmitSelfieLowConfidenceRejected(t *testing.T) {
	f := newFixture(t, fakeVerifier{label: "s1", confidence: 0.69})
	_, err := f.svc.SubmitSelfie(context.Background(), f.sessionID, "s1", []byte{1})
	if apperr.KindOf(err) != apperr.Verification {
		t.Fatalf("SubmitSelfie = %v, want Verification", err)
	}
	if n := countRecords(t, f.store, f.sessionID, "s1"); n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

func TestOverrideTwiceLeavesOneRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fakeVerifier{})

	if err := f.svc.Override(ctx, f.sessionID, "s1", model.Present, "t1"); err != nil {
		t.Fatalf("first Override: %v", err)
	}
	if err := f.svc.Override(ctx, f.sessionID, "s1", model.Absent, "t2"); err != nil {
		t.Fatalf("second Override: %v", err)
	}

	if n := countRecords(t, f.store, f.sessionID, "s1"); n != 1 {
		t.Fatalf("records = %d, want exactly 1", n)
	}
	rec, err := f.svc.repo.Find(ctx, f.sessionID, "s1")
	if err != nil || rec == nil {
		t.Fatalf("Find: %v %v", rec, err)
	}
	if rec.Status != model.Absent || rec.OverriddenBy != "t2" || rec.MarkedBy != model.ByTeacher {
		t.Errorf("record = %+v, want second override to win", rec)
	}
}

func TestOverridePreservesStudentSubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fakeVerifier{label: "s1", confidence: 0.9})

	if _, err := f.svc.SubmitSelfie(ctx, f.sessionID, "s1", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Override(ctx, f.sessionID, "s1", model.Absent, "t1"); err != nil {
		t.Fatal(err)
	}

	rec, _ := f.svc.repo.Find(ctx, f.sessionID, "s1")
	if rec.Status != model.Absent || rec.MarkedBy != model.ByTeacher || rec.OverriddenBy != "t1" {
		t.Errorf("override fields = %+v", rec)
	}
	if rec.Selfie == "" || rec.VerificationScore != 0.9 {
		t.Errorf("student submission evidence lost: %+v", rec)
	}
}

func TestOverrideRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, fakeVerifier{})
	err := f.svc.Override(context.Background(), f.sessionID, "s1", model.AttendanceStatus("LATE"), "t1")
	if apperr.KindOf(err) != apperr.Validation {
		t.Errorf("Override = %v, want Validation", err)
	}
}

func TestSessionAttendanceRosterSize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fakeVerifier{label: "s1", confidence: 0.9})

	// only one of two students has a record
	if _, err := f.svc.SubmitSelfie(ctx, f.sessionID, "s1", []byte{1}); err != nil {
		t.Fatal(err)
	}

	roster, err := f.svc.SessionAttendance(ctx, f.sessionID)
	if err != nil {
		t.Fatalf("SessionAttendance: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("roster = %d pairs, want 2", len(roster))
	}

	byID := map[string]model.Attendance{}
	for _, pair := range roster {
		byID[pair.Student.ID] = pair.Attendance
	}
	if byID["s1"].Status != model.Present {
		t.Errorf("s1 = %s, want PRESENT", byID["s1"].Status)
	}
	if byID["s2"].Status != model.Absent {
		t.Errorf("s2 = %s, want synthetic ABSENT", byID["s2"].Status)
	}
}

func TestRecordIDDeterministic(t *testing.T) {
	a := RecordID("sess1", "s1")
	b := RecordID("sess1", "s1")
	c := RecordID("sess1", "s2")
	if a != b {
		t.Error("RecordID not deterministic")
	}
	if a == c {
		t.Error("RecordID collides across students")
	}
}
