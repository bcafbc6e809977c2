package ledger

import (
	"context"

	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
)

// Repository loads and saves a user's whole transaction list.
type Repository interface {
	Load(ctx context.Context, userID string) ([]models.Transaction, error)
	Save(ctx context.Context, userID string, txs []models.Transaction) error
}

// BlobRepository stores each user's list as one JSON document under
// storage.LedgerKey.
type BlobRepository struct {
	store storage.Store
}

func NewBlobRepository(s storage.Store) *BlobRepository {
	return &BlobRepository{store: s}
}

func (r *BlobRepository) Load(ctx context.Context, userID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	if _, err := storage.GetJSON(ctx, r.store, storage.LedgerKey(userID), &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *BlobRepository) Save(ctx context.Context, userID string, txs []models.Transaction) error {
	if txs == nil {
		txs = []models.Transaction{}
	}
	return storage.SetJSON(ctx, r.store, storage.LedgerKey(userID), txs)
}
