package ledger

import (
	"errors"
	"fmt"
)

// Base errors for checking with errors.Is().
var (
	ErrNotFound   = errors.New("not found")
	ErrStoreWrite = errors.New("store write failed")
	ErrStoreRead  = errors.New("store read failed")
)

// Entity names a record that a request references.
type Entity string

const (
	EntityStudent         Entity = "student"
	EntityClassAssignment Entity = "class assignment"
	EntityTeacher         Entity = "teacher"
	EntityPointType       Entity = "point type"
	EntityAward           Entity = "award"
)

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Entity Entity
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StoreError reports a failed statement. Kind is ErrStoreWrite or ErrStoreRead.
type StoreError struct {
	Op   string
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// AggregateError is returned when a mutation was committed but the new total
// could not be read back. It unwraps to the read failure.
type AggregateError struct {
	StudentID int64
	Err       error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("award recorded but total for student %d could not be computed: %v", e.StudentID, e.Err)
}

func (e *AggregateError) Unwrap() error {
	return e.Err
}

func notFound(entity Entity, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ReadError wraps a failed lookup or aggregation.
func ReadError(op string, err error) error {
	return &StoreError{Op: op, Kind: ErrStoreRead, Err: err}
}

func writeError(op string, err error) error {
	return &StoreError{Op: op, Kind: ErrStoreWrite, Err: err}
}

// NotFoundEntity returns the missing entity carried by err, if any.
func NotFoundEntity(err error) (Entity, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Entity, true
	}
	return "", false
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
