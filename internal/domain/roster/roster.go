// Package roster lists the team members offered as task assignees.
package roster

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/rpggio/statusboard/internal/cell"
	"github.com/rpggio/statusboard/internal/dataset"
	"github.com/rpggio/statusboard/internal/schema"
	"github.com/rpggio/statusboard/internal/sheet"
)

// ColName is the canonical member name column.
const ColName = "Name"

// Columns is the roster column table.
var Columns = schema.Columns{
	{Name: ColName, Aliases: []string{"Nome", "Codenauta", "Member"}, Kind: schema.Text},
}

// Tables provides the raw roster sheet.
type Tables interface {
	Load(ctx context.Context, name string, force bool) dataset.Result
}

// Service reads member names.
type Service struct {
	tables Tables
	logger *slog.Logger
}

// NewService creates a new roster service.
func NewService(tables Tables, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{tables: tables, logger: logger}
}

// Members returns the sorted distinct member names. A roster without a
// name column yields no members.
func (s *Service) Members(ctx context.Context, force bool) []string {
	res := s.tables.Load(ctx, sheet.Roster, force)
	names := Names(res.Table)
	if names == nil && len(res.Table.Rows) > 0 {
		s.logger.Warn("roster has no name column", "header", res.Table.Header)
	}
	return names
}

// Names extracts sorted distinct names from a raw roster table.
func Names(t sheet.Table) []string {
	res := schema.Reconcile(t, Columns)
	if _, ok := res.Sources[ColName]; !ok {
		return nil
	}
	seen := make(map[string]bool, len(res.Rows))
	var out []string
	for _, row := range res.Rows {
		name := cell.Text(row[ColName])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
