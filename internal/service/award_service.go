// Package service sequences validation, ledger mutation and total
// recomputation for each award request.
package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/mmynk/extrapoints/internal/calculator"
	"github.com/mmynk/extrapoints/internal/ledger"
	"github.com/mmynk/extrapoints/internal/models"
	"github.com/mmynk/extrapoints/internal/storage"
)

// Stage is a step of the per-request pipeline.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageMutating    Stage = "mutating"
	StageAggregating Stage = "aggregating"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Recorder receives the result of every operation.
type Recorder interface {
	ObserveOperation(op, stage string, err error, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, error, time.Duration) {}

// AwardService runs the award operations. Steps are separate round trips
// with no surrounding transaction, so returned totals are advisory.
type AwardService struct {
	resolver *ledger.Resolver
	ledger   *ledger.Store
	totals   *calculator.Aggregator
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an AwardService.
type Option func(*AwardService)

// WithRecorder reports operation outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *AwardService) { s.recorder = r }
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *AwardService) { s.logger = l }
}

// NewAwardService creates an AwardService on a shared pool.
func NewAwardService(q storage.Querier, opts ...Option) *AwardService {
	s := &AwardService{
		resolver: ledger.NewResolver(q),
		ledger:   ledger.NewStore(q),
		totals:   calculator.NewAggregator(q),
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AwardRequest asks for points of one type to be granted to a student.
type AwardRequest struct {
	StudentID int64
	TeacherID int64
	TypeID    int64
	Comments  string
}

// RevisionRequest replaces the fields of a student's entries.
type RevisionRequest struct {
	StudentID int64
	TeacherID int64
	TypeID    int64
	Comments  string

	// Value overrides the catalog value of the point type; nil clears it.
	Value *int64

	// AwardID restricts the revision to one entry; zero revises all of them.
	AwardID int64
}

// Outcome is the result of a successful mutation.
type Outcome struct {
	StudentID int64

	// AwardID is the created entry (AwardPoints) or the removed one (RemoveAward).
	AwardID int64

	// Revised is the number of entries a revision changed.
	Revised int64

	// Total is the student's total after the mutation.
	Total int64
}

// run tracks one request through the pipeline.
type run struct {
	op    string
	stage Stage
	start time.Time
	attrs []any
}

func (s *AwardService) begin(op string, attrs ...any) *run {
	s.logger.Info(op+" request received", attrs...)
	return &run{op: op, stage: StageValidating, start: time.Now(), attrs: attrs}
}

func (s *AwardService) fail(r *run, err error) error {
	failedAt := r.stage
	r.stage = StageFailed

	attrs := slices.Concat(r.attrs, []any{"stage", failedAt, "error", err})
	if ledger.IsNotFound(err) {
		s.logger.Warn(r.op+" rejected", attrs...)
	} else {
		s.logger.Error(r.op+" failed", attrs...)
	}
	s.recorder.ObserveOperation(r.op, string(failedAt), err, time.Since(r.start))
	return err
}

func (s *AwardService) succeed(r *run, attrs ...any) {
	r.stage = StageDone
	s.logger.Info(r.op+" successful", slices.Concat(r.attrs, attrs)...)
	s.recorder.ObserveOperation(r.op, string(StageDone), nil, time.Since(r.start))
}

// AwardPoints validates the references, records a new entry and returns the
// student's recomputed total.
func (s *AwardService) AwardPoints(ctx context.Context, req AwardRequest) (*Outcome, error) {
	r := s.begin("AwardPoints",
		"student_id", req.StudentID,
		"teacher_id", req.TeacherID,
		"type_id", req.TypeID,
	)

	target, err := s.resolver.ResolveForAward(ctx, req.StudentID, req.TeacherID, req.TypeID)
	if err != nil {
		return nil, s.fail(r, err)
	}

	r.stage = StageMutating
	entry, err := s.ledger.Create(ctx, ledger.NewAward{
		TeacherID:  target.Teacher.ID,
		StudentKey: target.Student.UserID,
		ClassID:    target.ClassID,
		TypeID:     target.PointType.ID,
		Comments:   req.Comments,
	})
	if err != nil {
		return nil, s.fail(r, err)
	}

	r.stage = StageAggregating
	total, err := s.totals.TotalFor(ctx, target.Student.UserID)
	if err != nil {
		return nil, s.fail(r, &ledger.AggregateError{StudentID: req.StudentID, Err: err})
	}

	s.succeed(r, "award_id", entry.ID, "total", total)
	return &Outcome{StudentID: req.StudentID, AwardID: entry.ID, Total: total}, nil
}

// ReviseAward validates the references, rewrites the student's entries and
// returns the recomputed total.
func (s *AwardService) ReviseAward(ctx context.Context, req RevisionRequest) (*Outcome, error) {
	r := s.begin("ReviseAward",
		"student_id", req.StudentID,
		"teacher_id", req.TeacherID,
		"type_id", req.TypeID,
		"award_id", req.AwardID,
	)

	target, err := s.resolver.ResolveForAward(ctx, req.StudentID, req.TeacherID, req.TypeID)
	if err != nil {
		return nil, s.fail(r, err)
	}

	r.stage = StageMutating
	revised, err := s.ledger.Update(ctx, ledger.AwardRevision{
		AwardID:    req.AwardID,
		StudentKey: target.Student.UserID,
		TeacherID:  target.Teacher.ID,
		ClassID:    target.ClassID,
		TypeID:     target.PointType.ID,
		Comments:   req.Comments,
		Value:      req.Value,
	})
	if err != nil {
		return nil, s.fail(r, err)
	}

	r.stage = StageAggregating
	total, err := s.totals.TotalFor(ctx, target.Student.UserID)
	if err != nil {
		return nil, s.fail(r, &ledger.AggregateError{StudentID: req.StudentID, Err: err})
	}

	s.succeed(r, "revised", revised, "total", total)
	return &Outcome{StudentID: req.StudentID, Revised: revised, Total: total}, nil
}

// RemoveAward deletes one of the student's entries. The returned total is the
// pre-delete total minus the removed entry's value; it is not re-read, so a
// concurrent award between the two reads is not reflected.
func (s *AwardService) RemoveAward(ctx context.Context, studentID, awardID int64) (*Outcome, error) {
	r := s.begin("RemoveAward", "student_id", studentID, "award_id", awardID)

	target, err := s.resolver.ResolveForRemoval(ctx, studentID, awardID)
	if err != nil {
		return nil, s.fail(r, err)
	}

	r.stage = StageMutating
	snapshot, err := s.totals.TotalFor(ctx, target.Student.UserID)
	if err != nil {
		return nil, s.fail(r, err)
	}

	removed, err := s.ledger.Remove(ctx, target.Award.ID)
	if err != nil {
		return nil, s.fail(r, err)
	}

	r.stage = StageAggregating
	total := snapshot - removed

	s.succeed(r, "removed_value", removed, "total", total)
	return &Outcome{StudentID: studentID, AwardID: awardID, Total: total}, nil
}

// ListStudentsWithTotals returns every student with their total, ordered by
// student id.
func (s *AwardService) ListStudentsWithTotals(ctx context.Context) ([]models.StudentTotal, error) {
	r := s.begin("ListStudentsWithTotals")
	r.stage = StageAggregating

	totals, err := s.totals.ListTotals(ctx)
	if err != nil {
		return nil, s.fail(r, err)
	}

	s.succeed(r, "count", len(totals))
	return totals, nil
}

// GetStudentDetail returns one student with total and latest award details.
func (s *AwardService) GetStudentDetail(ctx context.Context, studentID int64) (*models.StudentDetail, error) {
	r := s.begin("GetStudentDetail", "student_id", studentID)
	r.stage = StageAggregating

	detail, err := s.totals.Detail(ctx, studentID)
	if err != nil {
		return nil, s.fail(r, err)
	}

	s.succeed(r, "total", detail.Total)
	return detail, nil
}
