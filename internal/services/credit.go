package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/anonto42/dispatch/backend/internal/apperrors"
	"github.com/anonto42/dispatch/backend/internal/events"
	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/repositories"
	"github.com/anonto42/dispatch/backend/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// TransferCredit moves amount from the caller to recipientID. The sender
// profile is created on first sight, so an unknown sender fails the balance
// check. Both balance writes and the ledger entry commit together.
func (s *AccountService) TransferCredit(ctx context.Context, senderEmail, recipientID string, amount int64) (result *models.TransferResult, err error) {
	defer func() { observeCredit("transfer", err) }()

	if amount <= 0 {
		return nil, apperrors.Conflict("Transfer amount must be positive")
	}

	sender, err := s.GetProfile(ctx, senderEmail)
	if err != nil {
		return nil, err
	}

	recipient, err := s.profiles.GetProfileByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("Recipient profile not found")
		}
		return nil, fmt.Errorf("load recipient: %w", err)
	}

	if sender.ID == recipient.ID {
		return nil, apperrors.Conflict("Cannot transfer credit to yourself")
	}
	if sender.Credit < amount {
		return nil, apperrors.Conflict("Insufficient credit")
	}

	entry, err := s.credits.Transfer(ctx, sender.ID, recipient.ID, amount)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInsufficientCredit):
			return nil, apperrors.Conflict("Insufficient credit")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, apperrors.NotFound("Recipient profile not found")
		}
		s.log.WithError(err).WithFields(logrus.Fields{
			"sender_id":    sender.ID,
			"recipient_id": recipient.ID,
			"amount":       amount,
		}).Error("Credit transfer failed")
		return nil, fmt.Errorf("transfer credit: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"entry_id":     entry.ID,
		"sender_id":    sender.ID,
		"recipient_id": recipient.ID,
		"amount":       amount,
	}).Info("Credit transferred")

	s.notify(ctx, &models.Notification{
		Type:        models.NotificationTypeCredit,
		ActorID:     sender.ID,
		RecipientID: recipient.ID,
		TargetID:    entry.ID,
		TargetType:  "credit",
		Message:     sender.DisplayName() + " sent you " + strconv.FormatInt(amount, 10) + " credit",
	})
	s.publish(ctx, events.SubjectCreditTransferred, creditEvent(entry))

	return &models.TransferResult{
		Success:      true,
		Message:      fmt.Sprintf("Successfully transferred %d credit to %s", amount, recipient.DisplayName()),
		SenderCredit: entry.SenderBalance,
		EntryID:      entry.ID,
	}, nil
}

// UpdateUserCredit sets a balance to an absolute amount
func (s *AccountService) UpdateUserCredit(ctx context.Context, id string, amount int64) (result *models.CreditUpdateResult, err error) {
	defer func() { observeCredit("admin_set", err) }()

	profile, err := s.profiles.GetProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("User profile not found")
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	entry, err := s.credits.SetCredit(ctx, id, amount)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("User profile not found")
		}
		return nil, fmt.Errorf("set credit: %w", err)
	}
	s.log.WithFields(logrus.Fields{"entry_id": entry.ID, "profile_id": id, "amount": amount}).Info("Credit set by admin")

	return &models.CreditUpdateResult{
		Success:         true,
		Message:         fmt.Sprintf("Successfully updated credit for %s to %d", profile.DisplayName(), amount),
		UserID:          id,
		NewCreditAmount: entry.RecipientBalance,
	}, nil
}

// AddCredits increments a balance and returns the balance after the write
func (s *AccountService) AddCredits(ctx context.Context, id string, amount int64) (result *models.CreditUpdateResult, err error) {
	defer func() { observeCredit("top_up", err) }()

	if amount <= 0 {
		return nil, apperrors.BadRequest("Credit amount must be positive")
	}

	entry, err := s.credits.AddCredit(ctx, id, amount)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("User profile not found")
		}
		return nil, fmt.Errorf("add credit: %w", err)
	}
	s.publish(ctx, events.SubjectCreditAdded, creditEvent(entry))

	return &models.CreditUpdateResult{
		Success:         true,
		Message:         fmt.Sprintf("Successfully added %d credits to account", amount),
		UserID:          id,
		NewCreditAmount: entry.RecipientBalance,
	}, nil
}

// ListCreditHistory returns the newest ledger entries touching the caller
func (s *AccountService) ListCreditHistory(ctx context.Context, email string, limit int) ([]models.CreditLedgerEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return []models.CreditLedgerEntry{}, nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	entries, err := s.credits.ListEntries(ctx, profile.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return entries, nil
}

func creditEvent(entry *models.CreditLedgerEntry) events.CreditEvent {
	return events.CreditEvent{
		EntryID: entry.ID,
		FromID:  entry.FromProfileID,
		ToID:    entry.ToProfileID,
		Amount:  entry.Amount,
		At:      entry.CreatedAt,
	}
}

func observeCredit(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperrors.KindOf(err).String()
	}
	metrics.CreditOperations.WithLabelValues(kind, outcome).Inc()
}
