package rowstore

import (
	"strings"

	"github.com/microlearning/site-api/internal/domain"
)

// Column positions, A through I.
const (
	colEmail = iota
	colName
	colMessage
	colSubmittedAt
	colConfirmationSent
	colConfirmationSentAt
	colResendSent
	colResendSentAt
	colStatus

	// ColumnCount is the width of every row read or written.
	ColumnCount
)

// HeaderRow is written to row 1 of an empty table.
var HeaderRow = []string{
	"email",
	"name",
	"message",
	"submitted_at",
	"confirmation_sent",
	"confirmation_sent_at",
	"resend_sent",
	"resend_sent_at",
	"status",
}

// EncodeRow lays a record out in column order. RowIndex is not stored.
func EncodeRow(rec domain.ContactRecord) []string {
	row := make([]string, ColumnCount)
	row[colEmail] = rec.Email
	row[colName] = rec.Name
	row[colMessage] = rec.Message
	row[colSubmittedAt] = string(rec.SubmittedAt)
	row[colConfirmationSent] = string(rec.ConfirmationSent)
	row[colConfirmationSentAt] = string(rec.ConfirmationSentAt)
	row[colResendSent] = string(rec.ResendSent)
	row[colResendSentAt] = string(rec.ResendSentAt)
	row[colStatus] = string(rec.Status)
	return row
}

// DecodeRow builds a record from the cells of one row. Short rows are
// padded with empty cells, the way spreadsheet APIs drop trailing blanks.
// Cell text is kept as-is so an untouched field writes back byte-for-byte.
func DecodeRow(rowIndex int, cells []string) domain.ContactRecord {
	cell := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	return domain.ContactRecord{
		Email:              cell(colEmail),
		Name:               cell(colName),
		Message:            cell(colMessage),
		SubmittedAt:        domain.Timestamp(cell(colSubmittedAt)),
		ConfirmationSent:   domain.Flag(cell(colConfirmationSent)),
		ConfirmationSentAt: domain.Timestamp(cell(colConfirmationSentAt)),
		ResendSent:         domain.Flag(cell(colResendSent)),
		ResendSentAt:       domain.Timestamp(cell(colResendSentAt)),
		Status:             domain.ContactStatus(cell(colStatus)),
		RowIndex:           rowIndex,
	}
}

// IsBlank reports whether a row has no content in the record columns.
func IsBlank(cells []string) bool {
	for i, c := range cells {
		if i >= ColumnCount {
			break
		}
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
