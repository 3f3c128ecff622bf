package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mmynk/extrapoints/internal/models"
	"github.com/mmynk/extrapoints/internal/storage"
)

// Store writes award entries. Each operation is a single statement; nothing
// is deduplicated by content.
type Store struct {
	q   storage.Querier
	now func() time.Time
}

// NewStore creates a Store on the given querier.
func NewStore(q storage.Querier) *Store {
	return &Store{q: q, now: time.Now}
}

// NewAward holds the fields of an entry to create.
type NewAward struct {
	TeacherID  int64
	StudentKey int64
	ClassID    int64
	TypeID     int64
	Comments   string
}

// AwardRevision holds the replacement fields for an update.
type AwardRevision struct {
	// AwardID limits the update to one entry. Zero updates every entry of
	// the student.
	AwardID int64

	StudentKey int64
	TeacherID  int64
	ClassID    int64
	TypeID     int64
	Comments   string

	// Value is the override to store; nil clears it so the catalog value applies.
	Value *int64
}

// Create inserts a new entry and returns it with the id assigned by the store.
func (s *Store) Create(ctx context.Context, a NewAward) (*models.AwardEntry, error) {
	entry := &models.AwardEntry{
		TeacherID:  a.TeacherID,
		StudentKey: a.StudentKey,
		ClassID:    a.ClassID,
		TypeID:     a.TypeID,
		Comments:   a.Comments,
		CreatedAt:  s.now().Unix(),
	}

	err := s.q.QueryRowContext(ctx,
		`INSERT INTO extra_points (ext_teacher_id, ext_student_id, ext_class_id, ext_type_id, ext_comments, ext_created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING ext_id`,
		entry.TeacherID, entry.StudentKey, entry.ClassID, entry.TypeID, entry.Comments, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return nil, writeError("insert award", err)
	}

	return entry, nil
}

// Update replaces teacher, class, type, comments and override on the matching
// entries and returns how many rows changed. With an explicit AwardID, no
// matching row is NotFound{award}.
func (s *Store) Update(ctx context.Context, rev AwardRevision) (int64, error) {
	var value any
	if rev.Value != nil {
		value = *rev.Value
	}

	query := `UPDATE extra_points
		 SET ext_teacher_id = ?, ext_class_id = ?, ext_type_id = ?, ext_comments = ?, ext_type_value = ?
		 WHERE ext_student_id = ?`
	args := []any{rev.TeacherID, rev.ClassID, rev.TypeID, rev.Comments, value, rev.StudentKey}
	if rev.AwardID != 0 {
		query += " AND ext_id = ?"
		args = append(args, rev.AwardID)
	}

	result, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, writeError("update award", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, writeError("update award", err)
	}
	if n == 0 && rev.AwardID != 0 {
		return 0, notFound(EntityAward, rev.AwardID)
	}

	return n, nil
}

// Remove deletes an entry and returns the value it contributed to its
// student's total. The value is read by the DELETE itself. A row that
// vanished since validation is NotFound{award}.
func (s *Store) Remove(ctx context.Context, awardID int64) (int64, error) {
	var override, catalog sql.NullInt64
	err := s.q.QueryRowContext(ctx,
		`DELETE FROM extra_points
		 WHERE ext_id = ?
		 RETURNING ext_type_value,
		           (SELECT ept.ext_type_value FROM extra_points_type ept
		            WHERE ept.ext_type_id = extra_points.ext_type_id)`,
		awardID,
	).Scan(&override, &catalog)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound(EntityAward, awardID)
	}
	if err != nil {
		return 0, writeError("delete award", err)
	}

	return EffectiveValue(nullable(override), nullable(catalog)), nil
}

func nullable(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
