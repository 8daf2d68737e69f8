package entries

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeProductive EntryType = "productive"
	EntryTypeScreenTime EntryType = "screen_time"
)

func ParseEntryType(value string) (EntryType, bool) {
	switch EntryType(value) {
	case EntryTypeProductive, EntryTypeScreenTime:
		return EntryType(value), true
	}
	return "", false
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(value), true
	}
	return "", false
}

type Entry struct {
	ID              int64            `gorm:"primaryKey"`
	UserID          int64            `gorm:"not null;index"`
	TaskID          *int64           `gorm:"index"`
	Hours           decimal.Decimal  `gorm:"type:numeric(8,2);not null"`
	EntryType       EntryType        `gorm:"type:varchar(16);not null"`
	Description     string           `gorm:"type:text;not null"`
	Status          Status           `gorm:"type:varchar(16);not null;index"`
	InputMinutes    *int             `gorm:"type:integer"`
	CalculatedHours *decimal.Decimal `gorm:"type:numeric(8,2)"`
	CreatedAt       time.Time        `gorm:"autoCreateTime"`
	ApprovedAt      *time.Time
	ApprovedBy      *int64
}

func (Entry) TableName() string {
	return "time_entries"
}

// EntryView is an entry joined with the display names of its task and owner.
type EntryView struct {
	Entry
	TaskName *string
	UserName string
}

type CreateInput struct {
	EntryType    string
	TaskID       *int64
	InputMinutes *int
	ManualHours  *decimal.Decimal
	Description  string
}

type ListFilter struct {
	Status *Status
	Limit  int
}

type CleanupMode string

const (
	// CleanupReverse deletes expiring entries and takes their approved hours back out of balances.
	CleanupReverse CleanupMode = "reverse"
	// CleanupArchive deletes decided expiring entries and leaves balances as they are.
	CleanupArchive CleanupMode = "archive"
)

func ParseCleanupMode(value string) (CleanupMode, bool) {
	switch CleanupMode(value) {
	case CleanupReverse, CleanupArchive:
		return CleanupMode(value), true
	}
	return "", false
}

type CleanupInput struct {
	OlderThan time.Duration
	Mode      CleanupMode
}

type CleanupResult struct {
	Mode           CleanupMode
	Cutoff         time.Time
	DeletedEntries int64
	AffectedUsers  int
	BalanceDelta   decimal.Decimal
}

// Decision is the outcome of an approve or reject call.
type Decision struct {
	Entry      Entry
	OwnerName  string
	OwnerEmail string
}
