package repositories

import (
	"context"
	"time"

	"github.com/anonto42/dispatch/backend/internal/ids"
	"github.com/anonto42/dispatch/backend/internal/models"
	"gorm.io/gorm"
)

// CreditRepository moves credit between profiles and keeps the ledger.
// Every method runs its balance writes and the ledger insert in one transaction.
type CreditRepository interface {
	Transfer(ctx context.Context, fromID, toID string, amount int64) (*models.CreditLedgerEntry, error)
	AddCredit(ctx context.Context, profileID string, amount int64) (*models.CreditLedgerEntry, error)
	SetCredit(ctx context.Context, profileID string, amount int64) (*models.CreditLedgerEntry, error)
	ListEntries(ctx context.Context, profileID string, limit int) ([]models.CreditLedgerEntry, error)
}

// PostgresCreditRepository implements CreditRepository for PostgreSQL
type PostgresCreditRepository struct {
	db *gorm.DB
}

// NewPostgresCreditRepository creates a new PostgresCreditRepository
func NewPostgresCreditRepository(db *gorm.DB) *PostgresCreditRepository {
	return &PostgresCreditRepository{db: db}
}

// Transfer debits fromID and credits toID. The debit only applies while the
// sender still holds amount, so a concurrent drain fails with ErrInsufficientCredit.
func (r *PostgresCreditRepository) Transfer(ctx context.Context, fromID, toID string, amount int64) (*models.CreditLedgerEntry, error) {
	var entry *models.CreditLedgerEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Profile{}).
			Where("id = ? AND credit >= ?", fromID, amount).
			UpdateColumn("credit", gorm.Expr("credit - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if _, err := balanceOf(tx, fromID); err != nil {
				return err
			}
			return ErrInsufficientCredit
		}

		res = tx.Model(&models.Profile{}).
			Where("id = ?", toID).
			UpdateColumn("credit", gorm.Expr("credit + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		senderBalance, err := balanceOf(tx, fromID)
		if err != nil {
			return err
		}
		recipientBalance, err := balanceOf(tx, toID)
		if err != nil {
			return err
		}

		entry = newEntry(models.CreditKindTransfer, fromID, toID, amount)
		entry.SenderBalance = senderBalance
		entry.RecipientBalance = recipientBalance
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AddCredit increments a balance by amount
func (r *PostgresCreditRepository) AddCredit(ctx context.Context, profileID string, amount int64) (*models.CreditLedgerEntry, error) {
	var entry *models.CreditLedgerEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Profile{}).
			Where("id = ?", profileID).
			UpdateColumn("credit", gorm.Expr("credit + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		balance, err := balanceOf(tx, profileID)
		if err != nil {
			return err
		}
		entry = newEntry(models.CreditKindTopUp, "", profileID, amount)
		entry.RecipientBalance = balance
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SetCredit overwrites a balance with an absolute amount
func (r *PostgresCreditRepository) SetCredit(ctx context.Context, profileID string, amount int64) (*models.CreditLedgerEntry, error) {
	var entry *models.CreditLedgerEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Profile{}).
			Where("id = ?", profileID).
			UpdateColumn("credit", amount)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		entry = newEntry(models.CreditKindAdminSet, "", profileID, amount)
		entry.RecipientBalance = amount
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns the newest ledger entries touching a profile
func (r *PostgresCreditRepository) ListEntries(ctx context.Context, profileID string, limit int) ([]models.CreditLedgerEntry, error) {
	var entries []models.CreditLedgerEntry
	err := r.db.WithContext(ctx).
		Where("from_profile_id = ? OR to_profile_id = ?", profileID, profileID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func balanceOf(tx *gorm.DB, profileID string) (int64, error) {
	var profile models.Profile
	if err := tx.Select("credit").Where("id = ?", profileID).First(&profile).Error; err != nil {
		return 0, translate(err)
	}
	return profile.Credit, nil
}

func newEntry(kind models.CreditEntryKind, fromID, toID string, amount int64) *models.CreditLedgerEntry {
	now := time.Now().UTC()
	return &models.CreditLedgerEntry{
		ID:            ids.NewAt(now),
		Kind:          kind,
		FromProfileID: fromID,
		ToProfileID:   toID,
		Amount:        amount,
		CreatedAt:     now,
	}
}
