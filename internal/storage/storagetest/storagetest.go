// Package storagetest provides a throwaway SQLite store and roster seeding
// helpers for tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/extrapoints/internal/storage"
	"github.com/mmynk/extrapoints/internal/storage/sqlite"
)

// Fixture is a migrated database in a temp directory.
type Fixture struct {
	t  testing.TB
	DB *storage.DB
}

// New opens a fresh database that is closed when the test ends.
func New(t testing.TB) *Fixture {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { db.Close() })

	return &Fixture{t: t, DB: db}
}

// Exec runs a raw statement and fails the test on error.
func (f *Fixture) Exec(query string, args ...any) {
	f.t.Helper()
	_, err := f.DB.ExecContext(context.Background(), query, args...)
	require.NoError(f.t, err, "exec %q", query)
}

// User inserts a user account.
func (f *Fixture) User(userID int64, name string) {
	f.t.Helper()
	f.Exec("INSERT INTO users (user_id, user_name) VALUES (?, ?)", userID, name)
}

// Student inserts a user account and the student that owns it.
func (f *Fixture) Student(studentID, userID int64, name string) {
	f.t.Helper()
	f.User(userID, name)
	f.Exec("INSERT INTO students (student_id, student_user_id) VALUES (?, ?)", studentID, userID)
}

// Teacher inserts a user account and the teacher that owns it.
func (f *Fixture) Teacher(teacherID, userID int64, name string) {
	f.t.Helper()
	f.User(userID, name)
	f.Exec("INSERT INTO teachers (teacher_id, teacher_user_id) VALUES (?, ?)", teacherID, userID)
}

// AssignClass enrolls a user account in a class.
func (f *Fixture) AssignClass(userID, classID int64) {
	f.t.Helper()
	f.Exec("INSERT INTO user_class (user_id, class_id) VALUES (?, ?)", userID, classID)
}

// PointType adds a catalog entry.
func (f *Fixture) PointType(typeID int64, name string, value int64) {
	f.t.Helper()
	f.Exec("INSERT INTO extra_points_type (ext_type_id, ext_type_name, ext_type_value) VALUES (?, ?, ?)", typeID, name, value)
}

// CountAwards returns the number of ledger rows.
func (f *Fixture) CountAwards() int {
	f.t.Helper()
	var n int
	err := f.DB.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM extra_points").Scan(&n)
	require.NoError(f.t, err)
	return n
}
