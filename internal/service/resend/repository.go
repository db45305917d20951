package resend

import (
	"context"

	"github.com/microlearning/site-api/internal/domain"
)

// Repository is the read/update side of the contact row store.
type Repository interface {
	FetchAll(ctx context.Context) ([]domain.ContactRecord, error)
	UpdateByIndex(ctx context.Context, rowIndex int, upd domain.ContactUpdate) error
}

// ReportStore archives sweep reports. Optional.
type ReportStore interface {
	SaveJSON(ctx context.Context, key string, data interface{}) error
}

// Lock guards a sweep against a concurrent sweep in another process.
// Acquire returns false without error when someone else holds it.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Refresher is implemented by locks that expire. The sweep refreshes
// before each record and stops when Refresh reports the lock was lost.
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
}
