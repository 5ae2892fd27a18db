package model

// SessionStatus is the lifecycle state of a class session. CLOSED is terminal.
type SessionStatus string

const (
	SessionActive SessionStatus = "ACTIVE"
	SessionClosed SessionStatus = "CLOSED"
)

// AttendanceStatus marks whether a student attended a session.
// The absence of a record means ABSENT; it is not an error.
type AttendanceStatus string

const (
	Present AttendanceStatus = "PRESENT"
	Absent  AttendanceStatus = "ABSENT"
)

// MarkedBy records who authored or last touched an attendance record.
type MarkedBy string

const (
	ByStudent MarkedBy = "STUDENT"
	ByTeacher MarkedBy = "TEACHER"
)

// Teacher is a teacher profile document, keyed by the identity-service user id.
type Teacher struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	Classrooms []string `json:"classrooms"`
	CreatedAt  int64    `json:"createdAt"`
}

// Student is a student profile document, keyed by the identity-service user id.
type Student struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	RollNumber string   `json:"rollNumber,omitempty"`
	Classrooms []string `json:"classrooms"`
	CreatedAt  int64    `json:"createdAt"`
}

// Classroom ties a roster of teachers, students and subjects to the
// expected wireless network of the physical room. Read-only from this core.
type Classroom struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	WifiSSID  string   `json:"wifiSSID"`
	WifiBSSID string   `json:"wifiBSSID"`
	Teachers  []string `json:"teachers"`
	Students  []string `json:"students"`
	Subjects  []string `json:"subjects"`
	CreatedAt int64    `json:"createdAt"`
}

// Subject is a course taught in a classroom. Read-only from this core.
type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	ClassroomID string `json:"classroomId"`
	TeacherID   string `json:"teacherId"`
	CreatedAt   int64  `json:"createdAt"`
}

// Session is a time-boxed attendance window for one subject in one classroom.
// The WiFi snapshot records the network that was live at creation time and is
// immutable afterwards; students are re-verified against the snapshot, not the
// classroom's current configuration.
type Session struct {
	ID               string        `json:"id"`
	TeacherID        string        `json:"teacherId"`
	SubjectID        string        `json:"subjectId"`
	ClassroomID      string        `json:"classroomId"`
	Date             string        `json:"date"` // YYYY-MM-DD
	StartTime        int64         `json:"startTime"`
	EndTime          int64         `json:"endTime"`
	Status           SessionStatus `json:"status"`
	WifiSSID         string        `json:"wifiSSID"`
	WifiBSSID        string        `json:"wifiBSSID"`
	AttendanceWindow bool          `json:"attendanceWindow"`
	CreatedAt        int64         `json:"createdAt"`
}

// Attendance is the authoritative record for one (session, student) pair.
// Selfie and VerificationScore are set only on student-submitted records.
// SelfieURL is filled in by the upload worker once the inline payload has
// been offloaded to the CDN.
type Attendance struct {
	ID                string           `json:"id"`
	SessionID         string           `json:"sessionId"`
	StudentID         string           `json:"studentId"`
	Status            AttendanceStatus `json:"status"`
	MarkedAt          int64            `json:"markedAt"`
	MarkedBy          MarkedBy         `json:"markedBy"`
	Selfie            string           `json:"selfie,omitempty"` // base64 JPEG
	SelfieURL         string           `json:"selfieUrl,omitempty"`
	VerificationScore float64          `json:"verificationScore,omitempty"`
	OverriddenBy      string           `json:"overriddenBy,omitempty"`
}

// ActiveSession is the denormalized projection shown in student-facing
// session lists. Computed on read, never persisted.
type ActiveSession struct {
	SessionID     string `json:"sessionId"`
	SubjectName   string `json:"subjectName"`
	TeacherName   string `json:"teacherName"`
	ClassroomName string `json:"classroomName"`
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime"`
}

// SubjectAttendance is a per-subject aggregate for one student.
type SubjectAttendance struct {
	SubjectID       string  `json:"subjectId"`
	SubjectName     string  `json:"subjectName"`
	SubjectCode     string  `json:"subjectCode"`
	TotalClasses    int     `json:"totalClasses"`
	AttendedClasses int     `json:"attendedClasses"`
	Percentage      float64 `json:"percentage"`
}

// AttendanceRecord is one row of a student's per-subject history.
type AttendanceRecord struct {
	SessionID   string           `json:"sessionId"`
	SubjectName string           `json:"subjectName"`
	Date        string           `json:"date"`
	StartTime   int64            `json:"startTime"`
	EndTime     int64            `json:"endTime"`
	Status      AttendanceStatus `json:"status"`
	MarkedAt    int64            `json:"markedAt"`
	SelfieURL   string           `json:"selfieUrl,omitempty"`
}

// Account is an identity-service credential document, keyed by lower-cased
// email. UserID points at the teacher or student profile document.
type Account struct {
	Email        string `json:"email"`
	Role         string `json:"role"` // "teacher" or "student"
	UserID       string `json:"userId"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    int64  `json:"createdAt"`
}
