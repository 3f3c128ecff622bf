// Package calculator computes extra point totals from the award ledger.
//
// Totals are never cached or stored: every call reads the ledger, because
// other writers may change it between requests.
package calculator

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mmynk/extrapoints/internal/ledger"
	"github.com/mmynk/extrapoints/internal/models"
	"github.com/mmynk/extrapoints/internal/storage"
)

// sumEffectiveValues is the total of a set of ledger rows. CAST keeps the
// scanned type an integer on drivers that widen SUM to numeric.
const sumEffectiveValues = "CAST(COALESCE(SUM(" + ledger.EffectiveValueSQL + "), 0) AS BIGINT)"

// Aggregator recomputes totals from the ledger.
type Aggregator struct {
	q storage.Querier
}

// NewAggregator creates an Aggregator on the given querier.
func NewAggregator(q storage.Querier) *Aggregator {
	return &Aggregator{q: q}
}

// TotalFor sums the effective value of every entry keyed by the student's
// user account id. A student without entries has a total of zero.
func (a *Aggregator) TotalFor(ctx context.Context, studentKey int64) (int64, error) {
	var total int64
	err := a.q.QueryRowContext(ctx,
		`SELECT `+sumEffectiveValues+`
		 FROM extra_points ep
		 LEFT JOIN extra_points_type ept ON ep.ext_type_id = ept.ext_type_id
		 WHERE ep.ext_student_id = ?`,
		studentKey,
	).Scan(&total)
	if err != nil {
		return 0, ledger.ReadError("sum awards", err)
	}
	return total, nil
}

// ListTotals returns every student with their total, ordered by student id.
func (a *Aggregator) ListTotals(ctx context.Context) ([]models.StudentTotal, error) {
	rows, err := a.q.QueryContext(ctx,
		`SELECT s.student_id, COALESCE(u.user_name, ''), `+sumEffectiveValues+`
		 FROM students s
		 LEFT JOIN users u ON s.student_user_id = u.user_id
		 LEFT JOIN extra_points ep ON ep.ext_student_id = s.student_user_id
		 LEFT JOIN extra_points_type ept ON ep.ext_type_id = ept.ext_type_id
		 GROUP BY s.student_id, u.user_name
		 ORDER BY s.student_id ASC`,
	)
	if err != nil {
		return nil, ledger.ReadError("list totals", err)
	}
	defer rows.Close()

	totals := []models.StudentTotal{}
	for rows.Next() {
		var st models.StudentTotal
		if err := rows.Scan(&st.StudentID, &st.StudentName, &st.Total); err != nil {
			return nil, ledger.ReadError("scan total", err)
		}
		totals = append(totals, st)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.ReadError("iterate totals", err)
	}

	return totals, nil
}

// Detail returns a student with total, and the teacher and comment of the
// most recent entry.
func (a *Aggregator) Detail(ctx context.Context, studentID int64) (*models.StudentDetail, error) {
	detail := &models.StudentDetail{}
	err := a.q.QueryRowContext(ctx,
		`SELECT s.student_id, COALESCE(u.user_name, ''), s.student_user_id
		 FROM students s
		 LEFT JOIN users u ON s.student_user_id = u.user_id
		 WHERE s.student_id = ?`,
		studentID,
	).Scan(&detail.StudentID, &detail.StudentName, &detail.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Entity: ledger.EntityStudent, ID: studentID}
	}
	if err != nil {
		return nil, ledger.ReadError("get student", err)
	}

	detail.Total, err = a.TotalFor(ctx, detail.UserID)
	if err != nil {
		return nil, err
	}

	var (
		teacherID     int64
		teacherUserID sql.NullInt64
		teacherName   sql.NullString
		comment       sql.NullString
	)
	err = a.q.QueryRowContext(ctx,
		`SELECT ep.ext_teacher_id, t.teacher_user_id, ut.user_name, ep.ext_comments
		 FROM extra_points ep
		 LEFT JOIN teachers t ON ep.ext_teacher_id = t.teacher_id
		 LEFT JOIN users ut ON t.teacher_user_id = ut.user_id
		 WHERE ep.ext_student_id = ?
		 ORDER BY ep.ext_id DESC
		 LIMIT 1`,
		detail.UserID,
	).Scan(&teacherID, &teacherUserID, &teacherName, &comment)
	if errors.Is(err, sql.ErrNoRows) {
		return detail, nil
	}
	if err != nil {
		return nil, ledger.ReadError("get latest award", err)
	}

	detail.TeacherID = &teacherID
	if teacherUserID.Valid {
		detail.TeacherUserID = &teacherUserID.Int64
	}
	if teacherName.Valid {
		detail.TeacherName = &teacherName.String
	}
	if comment.Valid {
		detail.LastComment = &comment.String
	}

	return detail, nil
}

// Sum adds up already-resolved entry values.
func Sum(values []int64) int64 {
	var total int64
	for _, v := range values {
		total += v
	}
	return total
}
