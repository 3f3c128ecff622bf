// Package ledger validates the records an award references and writes award
// entries. It is the only package that mutates the extra_points table.
package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mmynk/extrapoints/internal/models"
	"github.com/mmynk/extrapoints/internal/storage"
)

// Resolver looks up the records an award references.
type Resolver struct {
	q storage.Querier
}

// NewResolver creates a Resolver on the given querier.
func NewResolver(q storage.Querier) *Resolver {
	return &Resolver{q: q}
}

// AwardTarget is everything a create or revise needs once validation passed.
type AwardTarget struct {
	Student   *models.Student
	ClassID   int64
	Teacher   *models.Teacher
	PointType *models.PointType
}

// RemovalTarget is the validated student and the entry to remove.
type RemovalTarget struct {
	Student *models.Student
	Award   *models.AwardEntry
}

// ResolveForAward checks student, class assignment, teacher and point type in
// that order and stops at the first one missing.
func (r *Resolver) ResolveForAward(ctx context.Context, studentID, teacherID, typeID int64) (*AwardTarget, error) {
	student, err := r.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	assignment, err := r.ClassAssignment(ctx, student.UserID)
	if err != nil {
		return nil, err
	}

	teacher, err := r.Teacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	pointType, err := r.PointType(ctx, typeID)
	if err != nil {
		return nil, err
	}

	return &AwardTarget{
		Student:   student,
		ClassID:   assignment.ClassID,
		Teacher:   teacher,
		PointType: pointType,
	}, nil
}

// ResolveForRemoval checks the student, then the award entry. The entry must
// belong to that student.
func (r *Resolver) ResolveForRemoval(ctx context.Context, studentID, awardID int64) (*RemovalTarget, error) {
	student, err := r.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	award, err := r.Award(ctx, awardID, student.UserID)
	if err != nil {
		return nil, err
	}

	return &RemovalTarget{Student: student, Award: award}, nil
}

// Student returns a student by id.
func (r *Resolver) Student(ctx context.Context, studentID int64) (*models.Student, error) {
	student := &models.Student{}
	err := r.q.QueryRowContext(ctx,
		`SELECT s.student_id, s.student_user_id, COALESCE(u.user_name, '')
		 FROM students s
		 LEFT JOIN users u ON s.student_user_id = u.user_id
		 WHERE s.student_id = ?`,
		studentID,
	).Scan(&student.ID, &student.UserID, &student.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityStudent, studentID)
	}
	if err != nil {
		return nil, ReadError("get student", err)
	}
	return student, nil
}

// ClassAssignment returns the active class of a user account.
// When several assignments exist the lowest class id wins.
func (r *Resolver) ClassAssignment(ctx context.Context, userID int64) (*models.ClassAssignment, error) {
	assignment := &models.ClassAssignment{}
	err := r.q.QueryRowContext(ctx,
		"SELECT user_id, class_id FROM user_class WHERE user_id = ? ORDER BY class_id LIMIT 1",
		userID,
	).Scan(&assignment.UserID, &assignment.ClassID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityClassAssignment, userID)
	}
	if err != nil {
		return nil, ReadError("get class assignment", err)
	}
	return assignment, nil
}

// Teacher returns a teacher by id.
func (r *Resolver) Teacher(ctx context.Context, teacherID int64) (*models.Teacher, error) {
	teacher := &models.Teacher{}
	err := r.q.QueryRowContext(ctx,
		`SELECT t.teacher_id, t.teacher_user_id, COALESCE(u.user_name, '')
		 FROM teachers t
		 LEFT JOIN users u ON t.teacher_user_id = u.user_id
		 WHERE t.teacher_id = ?`,
		teacherID,
	).Scan(&teacher.ID, &teacher.UserID, &teacher.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityTeacher, teacherID)
	}
	if err != nil {
		return nil, ReadError("get teacher", err)
	}
	return teacher, nil
}

// PointType returns a catalog entry by id.
func (r *Resolver) PointType(ctx context.Context, typeID int64) (*models.PointType, error) {
	pt := &models.PointType{}
	err := r.q.QueryRowContext(ctx,
		"SELECT ext_type_id, ext_type_name, ext_type_value FROM extra_points_type WHERE ext_type_id = ?",
		typeID,
	).Scan(&pt.ID, &pt.Name, &pt.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityPointType, typeID)
	}
	if err != nil {
		return nil, ReadError("get point type", err)
	}
	return pt, nil
}

// Award returns an award entry by id, scoped to the student's ledger key.
func (r *Resolver) Award(ctx context.Context, awardID, studentKey int64) (*models.AwardEntry, error) {
	entry := &models.AwardEntry{}
	var comments sql.NullString
	var override sql.NullInt64

	err := r.q.QueryRowContext(ctx,
		`SELECT ext_id, ext_teacher_id, ext_student_id, ext_class_id, ext_type_id,
		        ext_comments, ext_type_value, ext_created_at
		 FROM extra_points WHERE ext_id = ? AND ext_student_id = ?`,
		awardID, studentKey,
	).Scan(&entry.ID, &entry.TeacherID, &entry.StudentKey, &entry.ClassID, &entry.TypeID,
		&comments, &override, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityAward, awardID)
	}
	if err != nil {
		return nil, ReadError("get award", err)
	}

	if comments.Valid {
		entry.Comments = comments.String
	}
	if override.Valid {
		v := override.Int64
		entry.Override = &v
	}

	return entry, nil
}
