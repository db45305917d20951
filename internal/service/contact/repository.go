package contact

import (
	"context"

	"github.com/microlearning/site-api/internal/domain"
)

// Repository is the write side of the contact row store.
type Repository interface {
	// Append stores rec as a new row and returns its row index.
	Append(ctx context.Context, rec domain.ContactRecord) (int, error)
}
