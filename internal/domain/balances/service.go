package balances

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timebank-go/internal/domain/apperr"
	"timebank-go/internal/domain/identity"
	"timebank-go/internal/domain/ledger"
	"timebank-go/internal/domain/user"
	"timebank-go/internal/metrics"
	"timebank-go/pkg/logger"
)

const maxReasonLength = 200

type Directory interface {
	Contact(ctx context.Context, userID int64) (*user.Contact, error)
}

type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string)
}

type Service struct {
	repo     Repository
	users    Directory
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, users Directory, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// GetBalance returns the stored balance of userID; users without a row have a zero balance.
func (s *Service) GetBalance(ctx context.Context, principal identity.Principal, userID int64) (*ledger.Balance, error) {
	if err := requireSelfOrAdmin(principal, userID); err != nil {
		return nil, err
	}
	return s.repo.GetBalance(ctx, userID)
}

func (s *Service) Transfer(ctx context.Context, principal identity.Principal, input TransferInput) (*Transfer, error) {
	hours := ledger.RoundHours(input.Hours)
	if !hours.IsPositive() {
		return nil, apperr.Invalid("hours must be greater than 0")
	}
	if input.ToUserID == principal.ID {
		return nil, ErrSelfTransfer
	}
	if input.ToUserID <= 0 {
		return nil, ErrRecipientNotFound
	}

	reason := strings.TrimSpace(input.Reason)
	if len([]rune(reason)) > maxReasonLength {
		return nil, apperr.Invalid("reason must be at most %d characters", maxReasonLength)
	}

	recipient, err := s.users.Contact(ctx, input.ToUserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	transfer := Transfer{
		FromUserID: principal.ID,
		ToUserID:   input.ToUserID,
		Hours:      hours,
	}
	if reason != "" {
		transfer.Reason = &reason
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		locked, err := tx.LockBalances(ctx, []int64{transfer.FromUserID, transfer.ToUserID})
		if err != nil {
			return err
		}
		if hours.GreaterThan(locked[transfer.FromUserID]) {
			return ErrInsufficientBalance
		}

		if err := tx.AdjustBalance(ctx, transfer.FromUserID, hours.Neg()); err != nil {
			return err
		}
		if err := tx.AdjustBalance(ctx, transfer.ToUserID, hours); err != nil {
			return err
		}
		return tx.CreateTransfer(ctx, &transfer)
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			metrics.Transfers.WithLabelValues("insufficient_balance").Inc()
		}
		return nil, err
	}
	metrics.Transfers.WithLabelValues("ok").Inc()
	metrics.TransferredHours.Add(hours.InexactFloat64())

	if recipient.Email != "" {
		body := fmt.Sprintf("Hi %s,\n\nuser %d sent you %s hours.", recipient.Name, transfer.FromUserID, hours.StringFixed(2))
		if transfer.Reason != nil {
			body += "\n\nReason: " + *transfer.Reason
		}
		s.notifier.Notify(ctx, recipient.Email, "You received hours", body)
	}

	return &transfer, nil
}

// AdjustUserBalance overwrites a balance with an absolute value. The change is
// routed through the adjustment primitive and recorded as an override.
func (s *Service) AdjustUserBalance(ctx context.Context, principal identity.Principal, userID int64, newBalance decimal.Decimal) (*ledger.Balance, error) {
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, apperr.Invalid("user id is required")
	}
	newBalance = ledger.RoundHours(newBalance)

	var previous decimal.Decimal
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		// A zero adjustment creates the row when missing, so there is always
		// something to lock and concurrent overrides serialize on it.
		if err := tx.AdjustBalance(ctx, userID, decimal.Zero); err != nil {
			return err
		}
		locked, err := tx.LockBalances(ctx, []int64{userID})
		if err != nil {
			return err
		}
		previous = locked[userID]
		delta := newBalance.Sub(previous)

		if err := tx.AdjustBalance(ctx, userID, delta); err != nil {
			return err
		}

		prev := previous
		next := newBalance
		return tx.RecordAdjustment(ctx, &ledger.Adjustment{
			UserID:          userID,
			ActorID:         principal.ActorID(),
			Kind:            ledger.AdjustmentOverride,
			Delta:           delta,
			PreviousBalance: &prev,
			NewBalance:      &next,
			Reason:          "admin balance override",
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.BalanceAdjustments.WithLabelValues("override").Inc()

	s.log.Warn("balances.override: authoritative balance override",
		"user_id", userID,
		"admin_id", principal.ID,
		"previous", previous.StringFixed(2),
		"new", newBalance.StringFixed(2),
	)

	return s.repo.GetBalance(ctx, userID)
}

// History lists transfers involving userID, newest first.
func (s *Service) History(ctx context.Context, principal identity.Principal, userID int64) ([]HistoryItem, error) {
	if err := requireSelfOrAdmin(principal, userID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListTransfersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(rows))
	for _, row := range rows {
		item := HistoryItem{Transfer: row.Transfer}
		if row.FromUserID == userID {
			item.Direction = DirectionSent
			item.CounterpartyID = row.ToUserID
			item.CounterpartyName = row.ToUserName
		} else {
			item.Direction = DirectionReceived
			item.CounterpartyID = row.FromUserID
			item.CounterpartyName = row.FromUserName
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items, nil
}

// ResetHistory purges every transfer involving userID. Balances stay as they
// are; the purged rows' net effect is kept as transfer_purge adjustments.
func (s *Service) ResetHistory(ctx context.Context, principal identity.Principal, userID int64) (*ResetResult, error) {
	if err := requireSelfOrAdmin(principal, userID); err != nil {
		return nil, err
	}

	result := &ResetResult{}
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		transfers, err := tx.LockTransfersByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(transfers) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(transfers))
		net := make(map[int64]decimal.Decimal)
		for _, transfer := range transfers {
			ids = append(ids, transfer.ID)
			net[transfer.FromUserID] = net[transfer.FromUserID].Sub(transfer.Hours)
			net[transfer.ToUserID] = net[transfer.ToUserID].Add(transfer.Hours)
		}

		deleted, err := tx.DeleteTransfersByIDs(ctx, ids)
		if err != nil {
			return err
		}

		users := make([]int64, 0, len(net))
		for id := range net {
			users = append(users, id)
		}
		sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

		for _, id := range users {
			delta := net[id]
			if delta.IsZero() {
				continue
			}
			if err := tx.RecordAdjustment(ctx, &ledger.Adjustment{
				UserID:  id,
				ActorID: principal.ActorID(),
				Kind:    ledger.AdjustmentTransferPurge,
				Delta:   delta,
				Reason:  fmt.Sprintf("transfer history of user %d reset", userID),
			}); err != nil {
				return err
			}
		}

		result.DeletedTransfers = deleted
		result.AffectedUsers = len(users)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("balances.reset_history: transfers purged",
		"user_id", userID,
		"actor_id", principal.ID,
		"deleted", result.DeletedTransfers,
	)
	return result, nil
}

func requireSelfOrAdmin(principal identity.Principal, userID int64) error {
	if principal.ID == userID || principal.IsAdmin() {
		return nil
	}
	return apperr.ErrForbidden
}
