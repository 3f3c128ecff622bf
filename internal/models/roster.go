package models

// Student represents a student record.
type Student struct {
	// ID is the student id used in request paths.
	ID int64

	// UserID is the user account of the student.
	// Award entries reference the student through this id.
	UserID int64

	// Name is the display name of the student's user account.
	Name string
}

// Teacher represents a teacher record.
type Teacher struct {
	// ID is the teacher id referenced by award entries.
	ID int64

	// UserID is the user account of the teacher.
	UserID int64

	// Name is the display name of the teacher's user account.
	Name string
}

// ClassAssignment binds a user account to a class.
// A student without an assignment cannot receive points.
type ClassAssignment struct {
	UserID  int64
	ClassID int64
}

// PointType is a catalog entry defining the weight of a category of award.
type PointType struct {
	ID    int64
	Name  string
	Value int64
}
