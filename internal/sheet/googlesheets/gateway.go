// Package googlesheets reads and overwrites spreadsheet tabs through the
// Google Sheets v4 API.
package googlesheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/rpggio/statusboard/internal/repository"
	"github.com/rpggio/statusboard/internal/sheet"
)

// Gateway implements repository.TableGateway for one spreadsheet. The API
// client is created on first use so a missing credential only degrades reads.
type Gateway struct {
	spreadsheetID string
	opts          []option.ClientOption
	logger        *slog.Logger

	once sync.Once
	svc  *sheets.Service
	err  error
}

func New(spreadsheetID string, logger *slog.Logger, opts ...option.ClientOption) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gateway{
		spreadsheetID: spreadsheetID,
		opts:          opts,
		logger:        logger,
	}
}

// WithCredentialsFile returns the client options for a service account key.
func WithCredentialsFile(path string) []option.ClientOption {
	return []option.ClientOption{
		option.WithCredentialsFile(path),
		option.WithScopes(sheets.SpreadsheetsScope),
	}
}

// FetchAll reads every populated cell of tab. Numbers come back unformatted
// and dates as their displayed text.
func (g *Gateway) FetchAll(ctx context.Context, tab string) (sheet.Table, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return sheet.Table{}, err
	}
	resp, err := svc.Spreadsheets.Values.Get(g.spreadsheetID, quote(tab)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return sheet.Table{}, classify(err)
	}
	g.logger.Debug("sheet read", "tab", tab, "rows", len(resp.Values))
	return sheet.FromValues(resp.Values), nil
}

// ReplaceAll writes header and rows from A1, then clears whatever lies
// below the new last row or right of the new last column. Writing before
// clearing keeps the tab populated if the second call fails.
func (g *Gateway) ReplaceAll(ctx context.Context, tab string, data sheet.Table) error {
	svc, err := g.service(ctx)
	if err != nil {
		return err
	}
	values := data.Values()
	_, err = svc.Spreadsheets.Values.Update(g.spreadsheetID, quote(tab)+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return classify(err)
	}
	req := &sheets.BatchClearValuesRequest{Ranges: leftovers(tab, len(values), width(values))}
	if _, err := svc.Spreadsheets.Values.BatchClear(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classify(err)
	}
	g.logger.Debug("sheet replaced", "tab", tab, "rows", data.Len(), "columns", len(data.Header))
	return nil
}

// leftovers returns the ranges outside a rows x cols block anchored at A1.
func leftovers(tab string, rows, cols int) []string {
	return []string{
		fmt.Sprintf("%s!A%d:ZZZ", quote(tab), rows+1),
		fmt.Sprintf("%s!%s1:ZZZ%d", quote(tab), column(cols+1), max(rows, 1)),
	}
}

func width(values [][]any) int {
	w := 0
	for _, row := range values {
		w = max(w, len(row))
	}
	return w
}

// column converts a 1-based column index to its A1 letters.
func column(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func (g *Gateway) service(ctx context.Context) (*sheets.Service, error) {
	g.once.Do(func() {
		g.svc, g.err = sheets.NewService(context.WithoutCancel(ctx), g.opts...)
		if g.err != nil {
			g.logger.Error("sheets client unavailable", "error", g.err)
			g.err = fmt.Errorf("%w: connecting to sheets: %w", repository.ErrUnavailable, g.err)
		}
	})
	return g.svc, g.err
}

// quote wraps a tab name for A1 notation.
func quote(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// classify maps API failures onto the repository sentinels.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	switch apiErr.Code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", repository.ErrRateLimited, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	case http.StatusForbidden:
		for _, item := range apiErr.Errors {
			if rateLimitReasons[item.Reason] {
				return fmt.Errorf("%w: %w", repository.ErrRateLimited, err)
			}
		}
	}
	return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
}
