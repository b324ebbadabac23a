// Package xlsx serves tables from a local Excel workbook, the offline
// stand-in for the remote spreadsheet.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/sheet"
)

// Gateway implements repository.TableGateway over one workbook file. Each
// call opens the file fresh so edits made in Excel are picked up.
type Gateway struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gateway{path: path, logger: logger}
}

// Path returns the workbook location.
func (g *Gateway) Path() string {
	return g.path
}

func (g *Gateway) FetchAll(ctx context.Context, tab string) (sheet.Table, error) {
	if err := ctx.Err(); err != nil {
		return sheet.Table{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	f, err := excelize.OpenFile(g.path)
	if err != nil {
		return sheet.Table{}, fmt.Errorf("%w: opening workbook: %w", repository.ErrUnavailable, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(tab); err != nil || idx < 0 {
		return sheet.Table{}, fmt.Errorf("%w: sheet %q", repository.ErrNotFound, tab)
	}
	rows, err := f.GetRows(tab, excelize.Options{RawCellValue: true})
	if err != nil {
		return sheet.Table{}, fmt.Errorf("%w: reading %q: %w", repository.ErrUnavailable, tab, err)
	}

	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = make([]any, len(row))
		for j, v := range row {
			values[i][j] = rawValue(v, i == 0)
		}
	}
	g.logger.Debug("workbook read", "tab", tab, "rows", len(rows))
	return sheet.FromValues(values), nil
}

// ReplaceAll rewrites tab from A1, creating the workbook or the sheet when
// missing. Rows past the new table are removed.
func (g *Gateway) ReplaceAll(ctx context.Context, tab string, data sheet.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	f, created, err := g.open()
	if err != nil {
		return fmt.Errorf("%w: opening workbook: %w", repository.ErrUnavailable, err)
	}
	defer f.Close()

	if err := prepareSheet(f, tab, created); err != nil {
		return fmt.Errorf("%w: preparing %q: %w", repository.ErrUnavailable, tab, err)
	}
	for i, row := range data.Values() {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(tab, cellName, &row); err != nil {
			return fmt.Errorf("%w: writing row %d: %w", repository.ErrUnavailable, i+1, err)
		}
	}

	if created {
		err = f.SaveAs(g.path)
	} else {
		err = f.Save()
	}
	if err != nil {
		return fmt.Errorf("%w: saving workbook: %w", repository.ErrUnavailable, err)
	}
	g.logger.Debug("workbook written", "tab", tab, "rows", data.Len())
	return nil
}

func (g *Gateway) open() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(g.path)
	if err == nil {
		return f, false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	if _, statErr := os.Stat(g.path); errors.Is(statErr, fs.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	return nil, false, err
}

// prepareSheet makes tab exist and empty.
func prepareSheet(f *excelize.File, tab string, created bool) error {
	idx, err := f.GetSheetIndex(tab)
	if err != nil {
		return err
	}
	if idx < 0 {
		if _, err := f.NewSheet(tab); err != nil {
			return err
		}
		if created {
			if def := f.GetSheetName(0); def != "" && def != tab {
				if err := f.DeleteSheet(def); err != nil {
					return err
				}
			}
		}
		return nil
	}
	rows, err := f.GetRows(tab)
	if err != nil {
		return err
	}
	for n := len(rows); n >= 1; n-- {
		if err := f.RemoveRow(tab, n); err != nil {
			return err
		}
	}
	return nil
}

// rawValue turns numeric text into a number the way the Sheets API returns
// unformatted values. Header cells stay text.
func rawValue(v string, header bool) any {
	if header || v == "" {
		return v
	}
	s := strings.TrimSpace(v)
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return v
}
