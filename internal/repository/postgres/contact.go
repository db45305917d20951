package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/microlearning/site-api/internal/domain"
)

// Schema creates the contact table. row_index starts at 2 so indices line
// up with the spreadsheet store, where row 1 is the header.
const Schema = `
CREATE TABLE IF NOT EXISTS contact_submissions (
	row_index            BIGINT GENERATED BY DEFAULT AS IDENTITY (START WITH 2) PRIMARY KEY,
	email                TEXT NOT NULL DEFAULT '',
	name                 TEXT NOT NULL DEFAULT '',
	message              TEXT NOT NULL DEFAULT '',
	submitted_at         TEXT NOT NULL DEFAULT '',
	confirmation_sent    TEXT NOT NULL DEFAULT '',
	confirmation_sent_at TEXT NOT NULL DEFAULT '',
	resend_sent          TEXT NOT NULL DEFAULT '',
	resend_sent_at       TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_contact_submissions_resend
	ON contact_submissions (confirmation_sent, resend_sent);
`

const contactColumns = `email, name, message, submitted_at, confirmation_sent,
	confirmation_sent_at, resend_sent, resend_sent_at, status`

// ContactRepo stores contact records in PostgreSQL. Timestamps and flags
// are kept as text so every store holds byte-identical values.
type ContactRepo struct{ db *sql.DB }

// NewContactRepo creates a Postgres-backed contact repository.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}

// EnsureSchema creates the table when missing.
func (r *ContactRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return unavailable("create contact table", err)
	}
	return nil
}

// Ping checks connectivity.
func (r *ContactRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Append inserts rec and returns its row index.
func (r *ContactRepo) Append(ctx context.Context, rec domain.ContactRecord) (int, error) {
	var rowIndex int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO contact_submissions (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING row_index
	`,
		rec.Email, rec.Name, rec.Message, string(rec.SubmittedAt),
		string(rec.ConfirmationSent), string(rec.ConfirmationSentAt),
		string(rec.ResendSent), string(rec.ResendSentAt), string(rec.Status),
	).Scan(&rowIndex)
	if err != nil {
		return 0, unavailable("insert contact", err)
	}
	return rowIndex, nil
}

// FetchAll returns every record ordered by row index.
func (r *ContactRepo) FetchAll(ctx context.Context) ([]domain.ContactRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT row_index, `+contactColumns+`
		FROM contact_submissions
		ORDER BY row_index
	`)
	if err != nil {
		return nil, unavailable("list contacts", err)
	}
	defer rows.Close()

	records := make([]domain.ContactRecord, 0)
	for rows.Next() {
		rec, err := scanContact(rows)
		if err != nil {
			return nil, unavailable("scan contact", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list contacts", err)
	}
	return records, nil
}

// UpdateByIndex merges upd into the stored row under a row lock.
func (r *ContactRepo) UpdateByIndex(ctx context.Context, rowIndex int, upd domain.ContactUpdate) error {
	if rowIndex < domain.FirstDataRow {
		return fmt.Errorf("row %d: %w", rowIndex, domain.ErrRecordNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer tx.Rollback()

	rec, err := scanContact(tx.QueryRowContext(ctx, `
		SELECT row_index, `+contactColumns+`
		FROM contact_submissions
		WHERE row_index = $1
		FOR UPDATE
	`, rowIndex))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("row %d: %w", rowIndex, domain.ErrRecordNotFound)
	}
	if err != nil {
		return unavailable("load contact", err)
	}

	rec = upd.Apply(rec)
	_, err = tx.ExecContext(ctx, `
		UPDATE contact_submissions SET
			email = $2, name = $3, message = $4, submitted_at = $5,
			confirmation_sent = $6, confirmation_sent_at = $7,
			resend_sent = $8, resend_sent_at = $9, status = $10,
			updated_at = NOW()
		WHERE row_index = $1
	`,
		rowIndex,
		rec.Email, rec.Name, rec.Message, string(rec.SubmittedAt),
		string(rec.ConfirmationSent), string(rec.ConfirmationSentAt),
		string(rec.ResendSent), string(rec.ResendSentAt), string(rec.Status),
	)
	if err != nil {
		return unavailable("update contact", err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(s scanner) (domain.ContactRecord, error) {
	var (
		rec                           domain.ContactRecord
		submittedAt, confSent, confAt string
		resendSent, resendAt, status  string
	)
	err := s.Scan(&rec.RowIndex, &rec.Email, &rec.Name, &rec.Message,
		&submittedAt, &confSent, &confAt, &resendSent, &resendAt, &status)
	if err != nil {
		return rec, err
	}
	rec.SubmittedAt = domain.Timestamp(submittedAt)
	rec.ConfirmationSent = domain.Flag(confSent)
	rec.ConfirmationSentAt = domain.Timestamp(confAt)
	rec.ResendSent = domain.Flag(resendSent)
	rec.ResendSentAt = domain.Timestamp(resendAt)
	rec.Status = domain.ContactStatus(status)
	return rec, nil
}
