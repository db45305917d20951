package rowstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microlearning/site-api/internal/domain"
)

// memTable is an in-memory Table. Row n lives at rows[n-1].
type memTable struct {
	rows   [][]string
	writes []int
	err    error
}

func (m *memTable) ReadAll(_ context.Context) ([][]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (m *memTable) ReadRow(_ context.Context, rowIndex int) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	if rowIndex < 1 || rowIndex > len(m.rows) {
		return nil, nil
	}
	return append([]string(nil), m.rows[rowIndex-1]...), nil
}

func (m *memTable) AppendRow(_ context.Context, cells []string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.rows = append(m.rows, append([]string(nil), cells...))
	return len(m.rows), nil
}

func (m *memTable) WriteRow(_ context.Context, rowIndex int, cells []string) error {
	if m.err != nil {
		return m.err
	}
	for len(m.rows) < rowIndex {
		m.rows = append(m.rows, nil)
	}
	m.rows[rowIndex-1] = append([]string(nil), cells...)
	m.writes = append(m.writes, rowIndex)
	return nil
}

func TestEncodeRow_ColumnOrder(t *testing.T) {
	row := EncodeRow(domain.ContactRecord{
		Email:              "jane@co.com",
		Name:               "Jane",
		Message:            "interested",
		SubmittedAt:        "2024-01-01T00:00:00.000Z",
		ConfirmationSent:   domain.FlagYes,
		ConfirmationSentAt: "2024-01-01T00:00:02.000Z",
		ResendSent:         domain.FlagUnset,
		Status:             domain.StatusConfirmed,
		RowIndex:           9,
	})

	assert.Equal(t, []string{
		"jane@co.com", "Jane", "interested", "2024-01-01T00:00:00.000Z",
		"YES", "2024-01-01T00:00:02.000Z", "", "", "confirmed",
	}, row)
	assert.Len(t, HeaderRow, ColumnCount)
}

func TestDecodeRow_PadsShortRows(t *testing.T) {
	rec := DecodeRow(4, []string{"a@b.co", "Al", "hi", "2024-01-01T00:00:00.000Z", "NO"})

	assert.Equal(t, 4, rec.RowIndex)
	assert.Equal(t, domain.FlagNo, rec.ConfirmationSent)
	assert.True(t, rec.ConfirmationSentAt.IsZero())
	assert.Equal(t, domain.StatusUnset, rec.Status)
}

func TestStore_FetchAll(t *testing.T) {
	table := &memTable{rows: [][]string{
		HeaderRow,
		{"a@b.co", "A", "one", "", "YES", "2024-01-01T00:00:00.000Z", "", "", "confirmed"},
		{},
		{"c@d.co", "C", "two"},
	}}

	recs, err := New(table).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, recs[0].RowIndex)
	assert.Equal(t, "a@b.co", recs[0].Email)
	assert.Equal(t, 4, recs[1].RowIndex)
	assert.Equal(t, "two", recs[1].Message)
}

func TestStore_FetchAllEmpty(t *testing.T) {
	for _, rows := range [][][]string{nil, {HeaderRow}} {
		recs, err := New(&memTable{rows: rows}).FetchAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	}
}

func TestStore_FetchAllUnavailable(t *testing.T) {
	table := &memTable{err: fmt.Errorf("sheets: %w", domain.ErrStoreUnavailable)}

	_, err := New(table).FetchAll(context.Background())
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestStore_Append(t *testing.T) {
	table := &memTable{rows: [][]string{HeaderRow}}
	s := New(table)

	idx, err := s.Append(context.Background(), domain.ContactRecord{Email: "jane@co.com", Name: "Jane", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	idx, err = s.Append(context.Background(), domain.ContactRecord{Email: "bob@co.com", Name: "Bob", Message: "yo"})
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
	assert.Equal(t, "bob@co.com", table.rows[2][0])
}

func TestStore_UpdateByIndexPreservesOtherFields(t *testing.T) {
	original := []string{
		"jane@co.com", "Jane", "line one\nline two", "2024-01-01T00:00:00Z",
		"YES", "2024-01-01T00:00:01.000Z", "", "", "confirmed",
	}
	table := &memTable{rows: [][]string{HeaderRow, original}}
	s := New(table)

	before, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	yes := domain.FlagYes
	require.NoError(t, s.UpdateByIndex(context.Background(), 2, domain.ContactUpdate{ResendSent: &yes}))

	after, err := s.FetchAll(context.Background())
	require.NoError(t, err)

	want := before[0]
	want.ResendSent = domain.FlagYes
	if diff := deep.Equal(after[0], want); diff != nil {
		t.Errorf("unexpected record after partial update: %v", diff)
	}
	assert.Equal(t, []int{2}, table.writes, "exactly one write per update")
}

func TestStore_UpdateByIndexResendCompleted(t *testing.T) {
	table := &memTable{rows: [][]string{
		HeaderRow,
		{"jane@co.com", "Jane", "hi", "2024-01-01T00:00:00.000Z", "YES", "2024-01-01T00:00:00.000Z", "", "", "confirmed"},
	}}
	now := time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)

	require.NoError(t, New(table).UpdateByIndex(context.Background(), 2, domain.ResendCompleted(now)))

	assert.Equal(t, []string{
		"jane@co.com", "Jane", "hi", "2024-01-01T00:00:00.000Z",
		"YES", "2024-01-01T00:00:00.000Z", "YES", "2024-01-02T01:00:00.000Z", "resent",
	}, table.rows[1])
}

func TestStore_UpdateByIndexNotFound(t *testing.T) {
	table := &memTable{rows: [][]string{HeaderRow, {"a@b.co"}, {}}}
	s := New(table)

	for _, idx := range []int{-1, 0, 1, 3, 50} {
		err := s.UpdateByIndex(context.Background(), idx, domain.ContactUpdate{})
		assert.True(t, errors.Is(err, domain.ErrRecordNotFound), "row %d: %v", idx, err)
	}
	assert.Empty(t, table.writes)
}

func TestStore_EnsureSchema(t *testing.T) {
	table := &memTable{}
	s := New(table)

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, s.EnsureSchema(context.Background()))

	assert.Equal(t, HeaderRow, table.rows[0])
	assert.Equal(t, []int{1}, table.writes, "header written once")
}

func TestStore_Ping(t *testing.T) {
	assert.NoError(t, New(&memTable{}).Ping(context.Background()))

	down := &memTable{err: fmt.Errorf("sheets: %w", domain.ErrStoreUnavailable)}
	assert.ErrorIs(t, New(down).Ping(context.Background()), domain.ErrStoreUnavailable)
}
