// Package models defines the core domain models for the extra points service.
//
// # Read-only records
//
// The following records are owned by the school roster and are only read here:
//   - Student: a student and the user account it belongs to
//   - Teacher: a teacher and the user account it belongs to
//   - ClassAssignment: the class a user account is enrolled in
//   - PointType: a catalog entry with the point weight of a category of award
//
// # Ledger
//
//   - AwardEntry: one award of extra points, the only record this service writes
//
// Award entries are keyed by the student's user account id, not by the student
// id. Every total is computed from the ledger on read; no total is stored.
//
// # Views
//
//   - StudentTotal: one row of the totals listing
//   - StudentDetail: a student with total, latest teacher and latest comment
package models
