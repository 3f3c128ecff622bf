package sqlite

import (
	"database/sql"
	"fmt"
)

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// extra_points carries no foreign keys: references are checked by the
// resolver before every write.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    user_id INTEGER PRIMARY KEY,
    user_name TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS students (
    student_id INTEGER PRIMARY KEY,
    student_user_id INTEGER NOT NULL,
    FOREIGN KEY (student_user_id) REFERENCES users(user_id)
)`,
	`CREATE TABLE IF NOT EXISTS teachers (
    teacher_id INTEGER PRIMARY KEY,
    teacher_user_id INTEGER NOT NULL,
    FOREIGN KEY (teacher_user_id) REFERENCES users(user_id)
)`,
	`CREATE TABLE IF NOT EXISTS user_class (
    user_id INTEGER NOT NULL,
    class_id INTEGER NOT NULL,
    PRIMARY KEY (user_id, class_id),
    FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS extra_points_type (
    ext_type_id INTEGER PRIMARY KEY,
    ext_type_name TEXT NOT NULL DEFAULT '',
    ext_type_value INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS extra_points (
    ext_id INTEGER PRIMARY KEY AUTOINCREMENT,
    ext_teacher_id INTEGER NOT NULL,
    ext_student_id INTEGER NOT NULL,
    ext_class_id INTEGER NOT NULL,
    ext_type_id INTEGER NOT NULL,
    ext_comments TEXT,
    ext_type_value INTEGER,
    ext_created_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_students_user_id ON students(student_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_extra_points_student_id ON extra_points(ext_student_id)`,
}

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
