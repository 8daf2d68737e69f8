package balances

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transfer struct {
	ID         int64           `gorm:"primaryKey"`
	FromUserID int64           `gorm:"not null;index"`
	ToUserID   int64           `gorm:"not null;index"`
	Hours      decimal.Decimal `gorm:"type:numeric(8,2);not null"`
	Reason     *string         `gorm:"type:text"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (Transfer) TableName() string {
	return "time_transfers"
}

type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// HistoryItem is a transfer seen from one user's side.
type HistoryItem struct {
	Transfer
	Direction        Direction
	CounterpartyID   int64
	CounterpartyName string
}

// TransferRow is a transfer joined with both parties' display names.
type TransferRow struct {
	Transfer
	FromUserName string
	ToUserName   string
}

type TransferInput struct {
	ToUserID int64
	Hours    decimal.Decimal
	Reason   string
}

type ResetResult struct {
	DeletedTransfers int64
	AffectedUsers    int
}
