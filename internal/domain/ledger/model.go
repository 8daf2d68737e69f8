// Package ledger holds the balance types shared by the accounting and
// transfer engines. The balance row is a materialized view over approved
// entries, transfers and adjustments; it is written only through the
// AdjustBalance primitive of the ledger store.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type Balance struct {
	UserID         int64           `gorm:"primaryKey;autoIncrement:false"`
	CurrentBalance decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	LastUpdated    time.Time       `gorm:"not null"`
}

func (Balance) TableName() string {
	return "user_time_balance"
}

type AdjustmentKind string

const (
	// AdjustmentOverride is an admin rewrite of a balance to an absolute value.
	AdjustmentOverride AdjustmentKind = "override"
	// AdjustmentArchive carries forward approved hours of entries removed by an archive cleanup.
	AdjustmentArchive AdjustmentKind = "archive"
	// AdjustmentTransferPurge carries forward the net effect of purged transfer rows.
	AdjustmentTransferPurge AdjustmentKind = "transfer_purge"
)

// Adjustment records a balance movement that no entry or transfer row explains.
type Adjustment struct {
	ID              int64 `gorm:"primaryKey"`
	UserID          int64 `gorm:"not null;index"`
	ActorID         *int64
	Kind            AdjustmentKind   `gorm:"type:varchar(32);not null"`
	Delta           decimal.Decimal  `gorm:"type:numeric(10,2);not null"`
	PreviousBalance *decimal.Decimal `gorm:"type:numeric(10,2)"`
	NewBalance      *decimal.Decimal `gorm:"type:numeric(10,2)"`
	Reason          string           `gorm:"type:text;not null"`
	CreatedAt       time.Time        `gorm:"autoCreateTime"`
}

func (Adjustment) TableName() string {
	return "balance_adjustments"
}
