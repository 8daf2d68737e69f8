package entries

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timebank-go/internal/domain/apperr"
	"timebank-go/internal/domain/identity"
	"timebank-go/internal/domain/ledger"
	"timebank-go/internal/domain/tasks"
	"timebank-go/internal/domain/user"
	"timebank-go/internal/metrics"
	"timebank-go/pkg/logger"
)

const (
	defaultListLimit  = 50
	maxListLimit      = 200
	maxDescriptionLen = 500
	DefaultCleanupAge = 7 * 24 * time.Hour
)

type TaskReader interface {
	Get(ctx context.Context, taskID int64) (*tasks.Task, error)
}

type Directory interface {
	Contact(ctx context.Context, userID int64) (*user.Contact, error)
	AdminContacts(ctx context.Context) ([]user.Contact, error)
}

// Notifier delivers a message on a best-effort basis. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string)
}

type Service struct {
	repo     Repository
	tasks    TaskReader
	users    Directory
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, tasks TaskReader, users Directory, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) Create(ctx context.Context, principal identity.Principal, input CreateInput) (*EntryView, error) {
	if principal.IsAdmin() {
		return nil, ErrAdminCannotSubmit
	}

	entryType, ok := ParseEntryType(input.EntryType)
	if !ok {
		return nil, apperr.Invalid("entry type must be productive or screen_time")
	}

	description := strings.TrimSpace(input.Description)
	if len([]rune(description)) > maxDescriptionLen {
		return nil, apperr.Invalid("description must be at most %d characters", maxDescriptionLen)
	}

	entry := Entry{
		UserID:      principal.ID,
		EntryType:   entryType,
		Description: description,
		Status:      StatusPending,
	}

	var taskName *string
	switch {
	case input.TaskID == nil && input.ManualHours == nil:
		return nil, apperr.Invalid("either task_id or hours is required")
	case input.TaskID != nil && input.ManualHours != nil:
		return nil, apperr.Invalid("task_id and hours are mutually exclusive")
	case input.ManualHours != nil:
		hours := ledger.RoundHours(*input.ManualHours)
		if entryType != EntryTypeScreenTime || !hours.IsNegative() {
			return nil, apperr.Invalid("manual entries must be screen_time with negative hours")
		}
		entry.Hours = hours
	default:
		task, err := s.tasks.Get(ctx, *input.TaskID)
		if err != nil {
			return nil, err
		}
		if !task.IsActive {
			return nil, ErrTaskInactive
		}

		minutes, err := resolveMinutes(task, input.InputMinutes)
		if err != nil {
			return nil, err
		}

		calculated := ledger.WeightedHours(minutes, task.WeightFactor)
		if entryType == EntryTypeScreenTime {
			entry.Hours = calculated.Abs().Neg()
		} else {
			if calculated.IsNegative() {
				return nil, apperr.Invalid("productive hours cannot be negative")
			}
			entry.Hours = calculated
		}

		taskID := task.ID
		entry.TaskID = &taskID
		entry.InputMinutes = &minutes
		entry.CalculatedHours = &calculated
		name := task.Name
		taskName = &name
	}

	if err := s.repo.CreateEntry(ctx, &entry); err != nil {
		return nil, err
	}
	metrics.EntriesCreated.WithLabelValues(string(entry.EntryType)).Inc()

	s.notifyAdmins(ctx, &entry, taskName)

	return &EntryView{Entry: entry, TaskName: taskName}, nil
}

func (s *Service) ListForUser(ctx context.Context, principal identity.Principal, filter ListFilter) ([]EntryView, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	return s.repo.ListEntriesByUser(ctx, principal.ID, filter)
}

func (s *Service) Delete(ctx context.Context, principal identity.Principal, entryID int64) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		entry, err := tx.LockEntry(ctx, entryID)
		if err != nil {
			if errors.Is(err, ErrEntryNotFound) {
				return ErrEntryNotDeletable
			}
			return err
		}
		if entry.UserID != principal.ID || entry.Status != StatusPending {
			return ErrEntryNotDeletable
		}

		deleted, err := tx.DeleteEntry(ctx, entry.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrEntryNotDeletable
		}
		return nil
	})
}

func (s *Service) ListPending(ctx context.Context, principal identity.Principal) ([]EntryView, error) {
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.repo.ListPendingEntries(ctx)
}

func (s *Service) Approve(ctx context.Context, principal identity.Principal, entryID int64) (*Decision, error) {
	return s.decide(ctx, principal, entryID, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, principal identity.Principal, entryID int64) (*Decision, error) {
	return s.decide(ctx, principal, entryID, StatusRejected)
}

func (s *Service) decide(ctx context.Context, principal identity.Principal, entryID int64, to Status) (*Decision, error) {
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}

	var decided Entry
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		entry, err := tx.LockEntry(ctx, entryID)
		if err != nil {
			if errors.Is(err, ErrEntryNotFound) {
				return ErrEntryNotPending
			}
			return err
		}
		if entry.Status != StatusPending {
			return ErrEntryNotPending
		}

		now := s.now().UTC()
		changed, err := tx.TransitionStatus(ctx, entry.ID, StatusPending, to, principal.ID, now)
		if err != nil {
			return err
		}
		if !changed {
			return ErrEntryNotPending
		}

		if to == StatusApproved {
			if err := tx.AdjustBalance(ctx, entry.UserID, entry.Hours); err != nil {
				return err
			}
		}

		adminID := principal.ID
		entry.Status = to
		entry.ApprovedBy = &adminID
		entry.ApprovedAt = &now
		decided = *entry
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEntryNotPending) {
			metrics.EntryDecisions.WithLabelValues("already_handled").Inc()
		}
		return nil, err
	}
	metrics.EntryDecisions.WithLabelValues(string(to)).Inc()
	if to == StatusApproved {
		metrics.BalanceAdjustments.WithLabelValues("approval").Inc()
	}

	decision := &Decision{Entry: decided}
	contact, err := s.users.Contact(ctx, decided.UserID)
	if err != nil {
		s.log.InternalError("entries.decide: owner lookup failed", err, "entry_id", decided.ID, "user_id", decided.UserID)
		return decision, nil
	}
	decision.OwnerName = contact.Name
	decision.OwnerEmail = contact.Email
	s.notifyOwner(ctx, contact, &decided)

	return decision, nil
}

// AdminUpdateHours corrects the hours of an entry and force-approves it.
func (s *Service) AdminUpdateHours(ctx context.Context, principal identity.Principal, entryID int64, newHours decimal.Decimal) (*Entry, error) {
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}
	newHours = ledger.RoundHours(newHours)

	var updated Entry
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		entry, err := tx.LockEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if err := validateHoursSign(entry.EntryType, newHours); err != nil {
			return err
		}

		delta := newHours
		if entry.Status == StatusApproved {
			delta = newHours.Sub(entry.Hours)
		}

		now := s.now().UTC()
		if err := tx.SetApprovedHours(ctx, entry.ID, newHours, principal.ID, now); err != nil {
			return err
		}
		if !delta.IsZero() {
			if err := tx.AdjustBalance(ctx, entry.UserID, delta); err != nil {
				return err
			}
		}

		adminID := principal.ID
		entry.Hours = newHours
		entry.Status = StatusApproved
		entry.ApprovedBy = &adminID
		entry.ApprovedAt = &now
		updated = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.BalanceAdjustments.WithLabelValues("correction").Inc()

	return &updated, nil
}

// AdminDelete removes an entry in any status, reversing approved hours.
func (s *Service) AdminDelete(ctx context.Context, principal identity.Principal, entryID int64) (*Entry, error) {
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}

	var removed Entry
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		entry, err := tx.LockEntry(ctx, entryID)
		if err != nil {
			return err
		}

		deleted, err := tx.DeleteEntry(ctx, entry.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrEntryNotFound
		}

		if entry.Status == StatusApproved && !entry.Hours.IsZero() {
			if err := tx.AdjustBalance(ctx, entry.UserID, entry.Hours.Neg()); err != nil {
				return err
			}
		}
		removed = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	if removed.Status == StatusApproved {
		metrics.BalanceAdjustments.WithLabelValues("deletion").Inc()
	}

	return &removed, nil
}

// Cleanup sweeps entries older than input.OlderThan. Each affected user is
// handled in its own transaction.
func (s *Service) Cleanup(ctx context.Context, principal identity.Principal, input CleanupInput) (*CleanupResult, error) {
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}
	if input.OlderThan <= 0 {
		input.OlderThan = DefaultCleanupAge
	}
	if input.Mode == "" {
		input.Mode = CleanupReverse
	}

	var statuses []Status
	switch input.Mode {
	case CleanupReverse:
		statuses = []Status{StatusPending, StatusApproved, StatusRejected}
	case CleanupArchive:
		statuses = []Status{StatusApproved, StatusRejected}
	default:
		return nil, apperr.Invalid("cleanup mode must be reverse or archive")
	}

	result := &CleanupResult{
		Mode:         input.Mode,
		Cutoff:       s.now().UTC().Add(-input.OlderThan),
		BalanceDelta: decimal.Zero,
	}

	userIDs, err := s.repo.ListUserIDsWithEntriesBefore(ctx, result.Cutoff, statuses)
	if err != nil {
		return nil, err
	}

	for _, userID := range userIDs {
		deleted, delta, err := s.cleanupUser(ctx, principal, userID, result.Cutoff, input.Mode, statuses)
		if err != nil {
			s.log.InternalError("entries.cleanup: user sweep failed", err, "user_id", userID, "mode", input.Mode)
			return result, err
		}
		if deleted == 0 {
			continue
		}
		result.DeletedEntries += deleted
		result.AffectedUsers++
		result.BalanceDelta = result.BalanceDelta.Add(delta)
	}

	s.log.Info("entries.cleanup: done",
		"mode", input.Mode,
		"cutoff", result.Cutoff,
		"deleted", result.DeletedEntries,
		"users", result.AffectedUsers,
		"balance_delta", result.BalanceDelta.String(),
	)
	return result, nil
}

func (s *Service) cleanupUser(ctx context.Context, principal identity.Principal, userID int64, cutoff time.Time, mode CleanupMode, statuses []Status) (int64, decimal.Decimal, error) {
	var (
		deleted int64
		delta   = decimal.Zero
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		expiring, err := tx.LockEntriesBefore(ctx, userID, cutoff, statuses)
		if err != nil {
			return err
		}
		if len(expiring) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(expiring))
		approved := decimal.Zero
		for _, entry := range expiring {
			ids = append(ids, entry.ID)
			if entry.Status == StatusApproved {
				approved = approved.Add(entry.Hours)
			}
		}

		count, err := tx.DeleteEntriesByIDs(ctx, ids)
		if err != nil {
			return err
		}

		if !approved.IsZero() {
			switch mode {
			case CleanupReverse:
				if err := tx.AdjustBalance(ctx, userID, approved.Neg()); err != nil {
					return err
				}
				delta = approved.Neg()
			case CleanupArchive:
				if err := tx.RecordAdjustment(ctx, &ledger.Adjustment{
					UserID:  userID,
					ActorID: principal.ActorID(),
					Kind:    ledger.AdjustmentArchive,
					Delta:   approved,
					Reason:  "approved entries archived by cleanup",
				}); err != nil {
					return err
				}
			}
		}

		deleted = count
		return nil
	})
	if err != nil {
		return 0, decimal.Zero, err
	}
	if mode == CleanupReverse && !delta.IsZero() {
		metrics.BalanceAdjustments.WithLabelValues("cleanup").Inc()
	}
	return deleted, delta, nil
}

func resolveMinutes(task *tasks.Task, inputMinutes *int) (int, error) {
	if inputMinutes != nil {
		if *inputMinutes <= 0 {
			return 0, apperr.Invalid("input_minutes must be positive")
		}
		return *inputMinutes, nil
	}
	if task.Hours != nil {
		return ledger.HoursToMinutes(*task.Hours), nil
	}
	return 0, apperr.Invalid("input_minutes is required for this task")
}

func validateHoursSign(entryType EntryType, hours decimal.Decimal) error {
	switch entryType {
	case EntryTypeProductive:
		if hours.IsNegative() {
			return apperr.Invalid("productive hours cannot be negative")
		}
	case EntryTypeScreenTime:
		if hours.IsPositive() {
			return apperr.Invalid("screen time hours cannot be positive")
		}
	}
	return nil
}
