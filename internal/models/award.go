package models

// AwardEntry is one recorded award of extra points.
type AwardEntry struct {
	// ID is the unique, immutable identifier assigned by the store.
	ID int64

	// TeacherID is the teacher who granted the points.
	TeacherID int64

	// StudentKey is the user account id of the student (students.student_user_id).
	StudentKey int64

	// ClassID is the class the student was assigned to when the entry was written.
	ClassID int64

	// TypeID references the PointType of the award.
	TypeID int64

	// Comments is free text left by the teacher.
	Comments string

	// Override, when set, replaces the catalog value of the point type.
	// Only the revise path writes it.
	Override *int64

	// CreatedAt is the Unix timestamp when the entry was written.
	CreatedAt int64
}

// StudentTotal is one row of the totals listing.
type StudentTotal struct {
	StudentID   int64  `json:"student_id"`
	StudentName string `json:"student_name"`
	Total       int64  `json:"total_extra_points"`
}

// StudentDetail describes a student together with the most recent award.
// Teacher fields and LastComment are nil when the student has no entries.
type StudentDetail struct {
	StudentID     int64   `json:"student_id"`
	StudentName   string  `json:"student_name"`
	UserID        int64   `json:"user_id"`
	TeacherID     *int64  `json:"teacher_id"`
	TeacherUserID *int64  `json:"teacher_user_id"`
	TeacherName   *string `json:"teacher_name"`
	Total         int64   `json:"total_extra_points"`
	LastComment   *string `json:"last_comment"`
}
