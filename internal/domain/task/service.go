package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/statusboard/internal/cell"
	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/schema"
	"github.com/rpggio/statusboard/internal/sheet"
)

// Tables provides reads and whole-table writes of the tasks sheet.
type Tables interface {
	Load(ctx context.Context, name string, force bool) dataset.Result
	Authoritative(ctx context.Context, name string) (sheet.Table, error)
	Replace(ctx context.Context, name string, data sheet.Table) (string, error)
}

// Service handles task reads and writes. Every write re-reads the remote
// table, applies one change and replaces the whole table.
type Service struct {
	tables     Tables
	normalizer *Normalizer
	now        func() time.Time
	strict     bool
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for creation dates and derived fields.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithStrictRefetch controls whether a write may fall back to the loaded
// copy when the remote read fails. Strict is the default.
func WithStrictRefetch(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// NewService creates a new task service.
func NewService(tables Tables, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		tables: tables,
		now:    time.Now,
		strict: true,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.normalizer = NewNormalizer(s.now, logger)
	return s
}

// View is a normalized load of the tasks sheet.
type View struct {
	Records   []Record       `json:"records"`
	Source    dataset.Source `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// ListRequest selects tasks.
type ListRequest struct {
	Filter Filter
	Force  bool
}

// Load normalizes the whole tasks sheet.
func (s *Service) Load(ctx context.Context, force bool) View {
	res := s.tables.Load(ctx, sheet.Tasks, force)
	records := s.normalizer.Normalize(res.Table)
	if res.Source.Degraded() {
		s.logger.Warn("serving degraded task data", "source", res.Source, "records", len(records))
	}
	return View{Records: records, Source: res.Source, FetchedAt: res.FetchedAt}
}

// List returns the filtered tasks.
func (s *Service) List(ctx context.Context, req ListRequest) View {
	v := s.Load(ctx, req.Force)
	v.Records = req.Filter.Apply(v.Records)
	return v
}

// Options returns filter values over every loaded task.
func (s *Service) Options(ctx context.Context) Options {
	return FilterOptions(s.Load(ctx, false).Records)
}

// Get finds a task by ID.
func (s *Service) Get(ctx context.Context, id int) (Record, error) {
	for _, r := range s.Load(ctx, false).Records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrTaskNotFound
}

// Create validates in, assigns the next ID against the remote copy and
// writes the whole table back.
func (s *Service) Create(ctx context.Context, in CreateInput) (Record, error) {
	if err := ValidateCreate(in); err != nil {
		return Record{}, err
	}
	base, err := s.base(ctx, "create")
	if err != nil {
		return Record{}, err
	}
	res := schema.Reconcile(base, Columns)
	records := s.normalizer.FromResult(res)

	rec := Record{
		ID:        NextID(records),
		CreatedOn: cell.DateOf(s.now()),
		DueDate:   in.DueDate,
	}
	rec.apply(in.Fields)
	records = append(records, rec)

	writeID, err := s.tables.Replace(ctx, sheet.Tasks, Payload(records, res))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	s.normalizer.Derive(&rec, cell.Truncate(s.now()))
	s.logger.Info("task created", "id", rec.ID, "write_id", writeID, "rows", len(records))
	return rec, nil
}

// Edit replaces the editable fields of task id. ID, creation date and due
// date are kept from the remote copy.
func (s *Service) Edit(ctx context.Context, id int, f Fields) (Record, error) {
	if id <= 0 {
		return Record{}, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	if err := ValidateEdit(f); err != nil {
		return Record{}, err
	}
	base, err := s.base(ctx, "edit")
	if err != nil {
		return Record{}, err
	}
	res := schema.Reconcile(base, Columns)
	records := s.normalizer.FromResult(res)

	idx := -1
	for i, r := range records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Record{}, ErrTaskNotFound
	}
	records[idx].apply(f)

	writeID, err := s.tables.Replace(ctx, sheet.Tasks, Payload(records, res))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	rec := records[idx]
	s.normalizer.Derive(&rec, cell.Truncate(s.now()))
	s.logger.Info("task edited", "id", id, "write_id", writeID)
	return rec, nil
}

// apply copies the editable fields onto r.
func (r *Record) apply(f Fields) {
	r.Project = strings.TrimSpace(f.Project)
	r.ReferenceMonth = strings.TrimSpace(f.ReferenceMonth)
	r.Priority = strings.TrimSpace(f.Priority)
	r.Description = strings.TrimSpace(f.Description)
	r.Assignees = cleanAssignees(f.Assignees)
	r.Status = strings.TrimSpace(f.Status)
	r.CompletedOn = f.CompletedOn
	r.CompletionNotes = strings.TrimSpace(f.CompletionNotes)
}

// base returns the table a write starts from: the remote copy, or with
// strict refetch off, the loaded copy when the remote read fails.
func (s *Service) base(ctx context.Context, op string) (sheet.Table, error) {
	t, err := s.tables.Authoritative(ctx, sheet.Tasks)
	if err == nil {
		return t, nil
	}
	if s.strict || errors.Is(err, context.Canceled) {
		s.logger.Error("authoritative read failed", "op", op, "error", err)
		return sheet.Table{}, fmt.Errorf("%w: %w", ErrAuthoritativeReadFailed, err)
	}
	res := s.tables.Load(ctx, sheet.Tasks, false)
	s.logger.Warn("authoritative read failed, writing against loaded copy",
		"op", op, "source", res.Source, "error", err)
	return res.Table, nil
}
