package project

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/sheet"
)

// Service serves normalized project records. Projects are read-only.
type Service struct {
	tables     Tables
	normalizer *Normalizer
	logger     *slog.Logger
}

// NewService creates a new project service.
func NewService(tables Tables, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		tables:     tables,
		normalizer: NewNormalizer(logger),
		logger:     logger,
	}
}

// View is a normalized load of the projects sheet.
type View struct {
	Records   []Record       `json:"records"`
	Source    dataset.Source `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// ListRequest selects projects.
type ListRequest struct {
	Filter Filter
	// LatestOnly keeps one record per project, its most recent month.
	LatestOnly bool
	Force      bool
}

// Load normalizes the whole projects sheet.
func (s *Service) Load(ctx context.Context, force bool) View {
	res := s.tables.Load(ctx, sheet.Projects, force)
	records := s.normalizer.Normalize(res.Table)
	if res.Source.Degraded() {
		s.logger.Warn("serving degraded project data", "source", res.Source, "records", len(records))
	}
	return View{Records: records, Source: res.Source, FetchedAt: res.FetchedAt}
}

// List returns the filtered projects.
func (s *Service) List(ctx context.Context, req ListRequest) View {
	v := s.Load(ctx, req.Force)
	v.Records = req.Filter.Apply(v.Records)
	if req.LatestOnly {
		v.Records = Latest(v.Records)
	}
	return v
}

// Options returns filter values over every loaded project.
func (s *Service) Options(ctx context.Context) Options {
	return FilterOptions(s.Load(ctx, false).Records)
}
