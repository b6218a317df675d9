package models

import "time"

// CreditEntryKind tells how a ledger entry moved credit
type CreditEntryKind string

const (
	CreditKindTransfer CreditEntryKind = "transfer"
	CreditKindTopUp    CreditEntryKind = "top_up"
	CreditKindAdminSet CreditEntryKind = "admin_set"
)

// CreditLedgerEntry records one balance change. FromProfileID is empty for
// top-ups and admin adjustments.
type CreditLedgerEntry struct {
	ID               string          `json:"id" gorm:"type:varchar(26);primaryKey"`
	Kind             CreditEntryKind `json:"kind" gorm:"size:20;index"`
	FromProfileID    string          `json:"from_profile_id,omitempty" gorm:"type:varchar(36);index"`
	ToProfileID      string          `json:"to_profile_id" gorm:"type:varchar(36);index"`
	Amount           int64           `json:"amount"`
	SenderBalance    int64           `json:"sender_balance,omitempty"`
	RecipientBalance int64           `json:"recipient_balance"`
	CreatedAt        time.Time       `json:"created_at" gorm:"index"`
}

// TransferCreditRequest defines the request body for a credit transfer
type TransferCreditRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Amount      int64  `json:"amount"`
}

// CreditAmountRequest defines the admin request body for setting or adding credit
type CreditAmountRequest struct {
	Amount int64 `json:"amount"`
}

// TransferResult is returned by a successful transfer
type TransferResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SenderCredit int64  `json:"sender_credit"`
	EntryID      string `json:"entry_id"`
}

// CreditUpdateResult is returned by admin credit operations
type CreditUpdateResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	UserID          string `json:"user_id"`
	NewCreditAmount int64  `json:"new_credit_amount"`
}
