package rowstore

import (
	"context"
	"fmt"

	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/pkg/logger"
)

// Table is a grid of string cells addressed by 1-based row number, where
// row 1 is the header. Implementations must wrap transport and auth
// failures in domain.ErrStoreUnavailable.
type Table interface {
	// ReadAll returns every row starting at row 1. Rows may be shorter
	// than ColumnCount.
	ReadAll(ctx context.Context) ([][]string, error)

	// ReadRow returns the cells of one row, or nil if the row is empty or
	// beyond the end of the table.
	ReadRow(ctx context.Context, rowIndex int) ([]string, error)

	// AppendRow adds a row after the last non-empty row and returns its
	// row number.
	AppendRow(ctx context.Context, cells []string) (int, error)

	// WriteRow replaces exactly one row.
	WriteRow(ctx context.Context, rowIndex int, cells []string) error
}

// Store is the typed contact store on top of a Table.
type Store struct {
	table Table
}

// New wraps table.
func New(table Table) *Store {
	return &Store{table: table}
}

// FetchAll returns every record in row order. Blank rows are skipped; an
// empty table yields an empty slice and no error.
func (s *Store) FetchAll(ctx context.Context) ([]domain.ContactRecord, error) {
	rows, err := s.table.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching contact rows: %w", err)
	}

	records := make([]domain.ContactRecord, 0, len(rows))
	for i, cells := range rows {
		rowIndex := i + 1
		if rowIndex < domain.FirstDataRow || IsBlank(cells) {
			continue
		}
		records = append(records, DecodeRow(rowIndex, cells))
	}
	return records, nil
}

// Append writes rec as a new row and returns the row index it landed on.
func (s *Store) Append(ctx context.Context, rec domain.ContactRecord) (int, error) {
	rowIndex, err := s.table.AppendRow(ctx, EncodeRow(rec))
	if err != nil {
		return 0, fmt.Errorf("appending contact row: %w", err)
	}
	if rowIndex < domain.FirstDataRow {
		logger.Warn("append did not report a usable row index", "row_index", rowIndex, "email", rec.Email)
	}
	return rowIndex, nil
}

// UpdateByIndex merges upd over the stored record and writes the merged
// row back in one write. Fields not set in upd keep their stored text.
func (s *Store) UpdateByIndex(ctx context.Context, rowIndex int, upd domain.ContactUpdate) error {
	if rowIndex < domain.FirstDataRow {
		return fmt.Errorf("row %d: %w", rowIndex, domain.ErrRecordNotFound)
	}

	cells, err := s.table.ReadRow(ctx, rowIndex)
	if err != nil {
		return fmt.Errorf("reading row %d: %w", rowIndex, err)
	}
	if IsBlank(cells) {
		return fmt.Errorf("row %d: %w", rowIndex, domain.ErrRecordNotFound)
	}

	merged := upd.Apply(DecodeRow(rowIndex, cells))
	if err := s.table.WriteRow(ctx, rowIndex, EncodeRow(merged)); err != nil {
		return fmt.Errorf("writing row %d: %w", rowIndex, err)
	}
	return nil
}

// EnsureSchema writes the header to row 1 if that row is empty. It is safe
// to call on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	cells, err := s.table.ReadRow(ctx, 1)
	if err != nil {
		return fmt.Errorf("reading header row: %w", err)
	}
	if !IsBlank(cells) {
		return nil
	}
	if err := s.table.WriteRow(ctx, 1, HeaderRow); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}
	logger.Info("initialized contact table header")
	return nil
}

// Ping reads the header row to prove the table is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.table.ReadRow(ctx, 1); err != nil {
		return fmt.Errorf("reading header row: %w", err)
	}
	return nil
}
