package entries

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	entriesdomain "timebank-go/internal/domain/entries"
	ledgerdomain "timebank-go/internal/domain/ledger"
	"timebank-go/internal/repository/postgres/ledger"
)

const viewColumns = "time_entries.*, household_tasks.name AS task_name, COALESCE(users.name, '') AS user_name"

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(entriesdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateEntry(ctx context.Context, entry *entriesdomain.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *PostgresRepository) GetEntryView(ctx context.Context, entryID int64) (*entriesdomain.EntryView, error) {
	var view entriesdomain.EntryView
	if err := r.views(ctx).Where("time_entries.id = ?", entryID).Take(&view).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entriesdomain.ErrEntryNotFound
		}
		return nil, err
	}
	return &view, nil
}

func (r *PostgresRepository) LockEntry(ctx context.Context, entryID int64) (*entriesdomain.Entry, error) {
	var entry entriesdomain.Entry
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", entryID).
		Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entriesdomain.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *PostgresRepository) ListEntriesByUser(ctx context.Context, userID int64, filter entriesdomain.ListFilter) ([]entriesdomain.EntryView, error) {
	query := r.views(ctx).Where("time_entries.user_id = ?", userID)
	if filter.Status != nil {
		query = query.Where("time_entries.status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var views []entriesdomain.EntryView
	if err := query.Order("time_entries.created_at desc, time_entries.id desc").Find(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}

func (r *PostgresRepository) ListPendingEntries(ctx context.Context) ([]entriesdomain.EntryView, error) {
	var views []entriesdomain.EntryView
	if err := r.views(ctx).
		Where("time_entries.status = ?", entriesdomain.StatusPending).
		Order("time_entries.created_at asc, time_entries.id asc").
		Find(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}

func (r *PostgresRepository) TransitionStatus(ctx context.Context, entryID int64, from, to entriesdomain.Status, adminID int64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entriesdomain.Entry{}).
		Where("id = ? AND status = ?", entryID, from).
		Updates(map[string]interface{}{
			"status":      to,
			"approved_by": adminID,
			"approved_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) SetApprovedHours(ctx context.Context, entryID int64, hours decimal.Decimal, adminID int64, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entriesdomain.Entry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"hours":       hours,
			"status":      entriesdomain.StatusApproved,
			"approved_by": adminID,
			"approved_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entriesdomain.ErrEntryNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteEntry(ctx context.Context, entryID int64) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&entriesdomain.Entry{}, "id = ?", entryID)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) ListUserIDsWithEntriesBefore(ctx context.Context, cutoff time.Time, statuses []entriesdomain.Status) ([]int64, error) {
	var userIDs []int64
	if err := r.db.WithContext(ctx).
		Model(&entriesdomain.Entry{}).
		Distinct("user_id").
		Where("created_at < ? AND status IN ?", cutoff, statuses).
		Order("user_id asc").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *PostgresRepository) LockEntriesBefore(ctx context.Context, userID int64, cutoff time.Time, statuses []entriesdomain.Status) ([]entriesdomain.Entry, error) {
	var entries []entriesdomain.Entry
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND created_at < ? AND status IN ?", userID, cutoff, statuses).
		Order("id asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PostgresRepository) DeleteEntriesByIDs(ctx context.Context, entryIDs []int64) (int64, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&entriesdomain.Entry{}, "id IN ?", entryIDs)
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) error {
	return ledger.AdjustBalance(ctx, r.db, userID, delta)
}

func (r *PostgresRepository) RecordAdjustment(ctx context.Context, adjustment *ledgerdomain.Adjustment) error {
	return ledger.RecordAdjustment(ctx, r.db, adjustment)
}

func (r *PostgresRepository) views(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("time_entries").
		Select(viewColumns).
		Joins("LEFT JOIN household_tasks ON household_tasks.id = time_entries.task_id").
		Joins("LEFT JOIN users ON users.id = time_entries.user_id")
}
