package stats

import (
	"context"
	"time"

	"timebank-go/internal/domain/apperr"
	"timebank-go/internal/domain/identity"
	"timebank-go/internal/domain/ledger"
)

const RecentWindow = 7 * 24 * time.Hour

// Service answers admin reporting queries. Every call reads the store, so
// balances shown here are never older than the request.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) Users(ctx context.Context, principal identity.Principal) (Overview, error) {
	if err := principal.RequireAdmin(); err != nil {
		return Overview{}, err
	}

	since := s.now().Add(-RecentWindow)
	rows, err := s.repo.UserRows(ctx, since)
	if err != nil {
		return Overview{}, err
	}
	for i := range rows {
		rows[i].CurrentBalance = ledger.RoundHours(rows[i].CurrentBalance)
		rows[i].ApprovedProductive = ledger.RoundHours(rows[i].ApprovedProductive)
		rows[i].ApprovedScreenTime = ledger.RoundHours(rows[i].ApprovedScreenTime.Abs())
	}

	return Overview{Since: since, Users: rows}, nil
}

// Reconcile compares the stored balance with the one derived from the ledger.
func (s *Service) Reconcile(ctx context.Context, principal identity.Principal, userID int64) (Reconciliation, error) {
	if err := principal.RequireAdmin(); err != nil {
		return Reconciliation{}, err
	}
	if userID <= 0 {
		return Reconciliation{}, apperr.Invalid("user id is required")
	}

	totals, err := s.repo.LedgerTotals(ctx, userID)
	if err != nil {
		return Reconciliation{}, err
	}

	derived := totals.ApprovedHours.
		Add(totals.ReceivedHours).
		Sub(totals.SentHours).
		Add(totals.AdjustedHours)
	derived = ledger.RoundHours(derived)
	stored := ledger.RoundHours(totals.StoredBalance)

	return Reconciliation{
		UserID:         userID,
		StoredBalance:  stored,
		DerivedBalance: derived,
		Drift:          stored.Sub(derived),
		Totals:         totals,
	}, nil
}
