package stats

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRow is one line of the admin overview.
type UserRow struct {
	UserID             int64
	Name               string
	Email              *string
	Role               string
	CurrentBalance     decimal.Decimal
	RecentEntries      int64
	RecentPending      int64
	ApprovedProductive decimal.Decimal
	ApprovedScreenTime decimal.Decimal
}

type Overview struct {
	Since time.Time
	Users []UserRow
}

// LedgerTotals are the sums a balance can be derived from.
type LedgerTotals struct {
	StoredBalance decimal.Decimal
	ApprovedHours decimal.Decimal
	ReceivedHours decimal.Decimal
	SentHours     decimal.Decimal
	AdjustedHours decimal.Decimal
}

type Reconciliation struct {
	UserID         int64
	StoredBalance  decimal.Decimal
	DerivedBalance decimal.Decimal
	Drift          decimal.Decimal
	Totals         LedgerTotals
}

func (r Reconciliation) Consistent() bool {
	return r.Drift.IsZero()
}
