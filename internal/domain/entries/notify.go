package entries

import (
	"context"
	"fmt"

	"timebank-go/internal/domain/user"
)

func (s *Service) notifyAdmins(ctx context.Context, entry *Entry, taskName *string) {
	admins, err := s.users.AdminContacts(ctx)
	if err != nil {
		s.log.InternalError("entries.create: admin lookup failed", err, "entry_id", entry.ID)
		return
	}

	what := "manual screen time"
	if taskName != nil {
		what = *taskName
	}
	subject := "New time entry awaiting approval"
	body := fmt.Sprintf("User %d submitted a %s entry (%s) for %s hours.\n\n%s",
		entry.UserID, entry.EntryType, what, entry.Hours.StringFixed(2), entry.Description)

	for _, admin := range admins {
		s.notifier.Notify(ctx, admin.Email, subject, body)
	}
}

func (s *Service) notifyOwner(ctx context.Context, owner *user.Contact, entry *Entry) {
	if owner.Email == "" {
		return
	}

	subject := fmt.Sprintf("Your time entry was %s", entry.Status)
	body := fmt.Sprintf("Hi %s,\n\nyour %s entry #%d for %s hours was %s.",
		owner.Name, entry.EntryType, entry.ID, entry.Hours.StringFixed(2), entry.Status)
	s.notifier.Notify(ctx, owner.Email, subject, body)
}
