// Package storage holds the non-spreadsheet backends for the contact
// table (a local JSON file for development, DynamoDB for hosted
// deployments) and the S3 archive for sweep reports.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/repository/rowstore"
)

// LocalTable keeps the contact grid in a single JSON file. It is meant for
// local development and tests; concurrent writers in different processes
// are not coordinated.
type LocalTable struct {
	path string
	mu   sync.Mutex
}

var _ rowstore.Table = (*LocalTable)(nil)

type localFile struct {
	Rows [][]string `json:"rows"`
}

// NewLocalTable creates the parent directory of path if needed. The file
// itself is created on first write.
func NewLocalTable(path string) (*LocalTable, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: creating storage directory: %v", domain.ErrStoreUnavailable, err)
	}
	return &LocalTable{path: path}, nil
}

// ReadAll returns all rows in the file.
func (t *LocalTable) ReadAll(_ context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := t.load()
	if err != nil {
		return nil, err
	}
	return f.Rows, nil
}

// ReadRow returns one row, or nil when it is missing.
func (t *LocalTable) ReadRow(_ context.Context, rowIndex int) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := t.load()
	if err != nil {
		return nil, err
	}
	if rowIndex < 1 || rowIndex > len(f.Rows) {
		return nil, nil
	}
	return f.Rows[rowIndex-1], nil
}

// AppendRow appends after the last non-blank row, like a spreadsheet
// append, and returns the new row number.
func (t *LocalTable) AppendRow(_ context.Context, cells []string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := t.load()
	if err != nil {
		return 0, err
	}

	last := len(f.Rows)
	for last > 0 && rowstore.IsBlank(f.Rows[last-1]) {
		last--
	}
	// row 1 is reserved for the header even when it has not been written
	if last < 1 {
		last = 1
	}
	for len(f.Rows) < last {
		f.Rows = append(f.Rows, []string{})
	}
	f.Rows = append(f.Rows[:last], append([]string(nil), cells...))

	if err := t.save(f); err != nil {
		return 0, err
	}
	return last + 1, nil
}

// WriteRow replaces one row, growing the file if needed.
func (t *LocalTable) WriteRow(_ context.Context, rowIndex int, cells []string) error {
	if rowIndex < 1 {
		return fmt.Errorf("invalid row %d", rowIndex)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := t.load()
	if err != nil {
		return err
	}
	for len(f.Rows) < rowIndex {
		f.Rows = append(f.Rows, []string{})
	}
	f.Rows[rowIndex-1] = append([]string(nil), cells...)
	return t.save(f)
}

func (t *LocalTable) load() (*localFile, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return &localFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrStoreUnavailable, t.path, err)
	}

	var f localFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", domain.ErrStoreUnavailable, t.path, err)
	}
	return &f, nil
}

// save replaces the file atomically through a temp file and rename.
func (t *LocalTable) save(f *localFile) error {
	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".contacts-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(f); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: encoding table: %v", domain.ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
