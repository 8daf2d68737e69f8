package user

import (
	"context"
	"strings"

	"timebank-go/internal/domain/apperr"
	"timebank-go/internal/domain/identity"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpsertProfile keeps the local user row in step with the identity claims.
func (s *Service) UpsertProfile(ctx context.Context, principal identity.Principal, email, name string) error {
	if !principal.Valid() {
		return apperr.Invalid("user id and role are required")
	}

	profile := User{
		ID:   principal.ID,
		Name: strings.TrimSpace(name),
		Role: string(principal.Role),
	}
	if email = strings.TrimSpace(email); email != "" {
		profile.Email = &email
	}

	return s.repo.UpsertProfile(ctx, &profile)
}

func (s *Service) Get(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) Contact(ctx context.Context, userID int64) (*Contact, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	contact := u.Contact()
	return &contact, nil
}

// AdminContacts lists admins that have an email address on file.
func (s *Service) AdminContacts(ctx context.Context) ([]Contact, error) {
	admins, err := s.repo.ListUsersByRole(ctx, string(identity.RoleAdmin))
	if err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0, len(admins))
	for _, admin := range admins {
		contact := admin.Contact()
		if contact.Email == "" {
			continue
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}
