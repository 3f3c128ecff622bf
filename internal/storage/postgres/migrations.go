package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema mirrors the SQLite schema with PostgreSQL types.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    user_id BIGINT PRIMARY KEY,
    user_name TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS students (
    student_id BIGINT PRIMARY KEY,
    student_user_id BIGINT NOT NULL REFERENCES users(user_id)
)`,
	`CREATE TABLE IF NOT EXISTS teachers (
    teacher_id BIGINT PRIMARY KEY,
    teacher_user_id BIGINT NOT NULL REFERENCES users(user_id)
)`,
	`CREATE TABLE IF NOT EXISTS user_class (
    user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    class_id BIGINT NOT NULL,
    PRIMARY KEY (user_id, class_id)
)`,
	`CREATE TABLE IF NOT EXISTS extra_points_type (
    ext_type_id BIGINT PRIMARY KEY,
    ext_type_name TEXT NOT NULL DEFAULT '',
    ext_type_value BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS extra_points (
    ext_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    ext_teacher_id BIGINT NOT NULL,
    ext_student_id BIGINT NOT NULL,
    ext_class_id BIGINT NOT NULL,
    ext_type_id BIGINT NOT NULL,
    ext_comments TEXT,
    ext_type_value BIGINT,
    ext_created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_students_user_id ON students(student_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_extra_points_student_id ON extra_points(ext_student_id)`,
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
