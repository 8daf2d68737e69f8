package user

import "context"

type Repository interface {
	UpsertProfile(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, userID int64) (*User, error)
	ListUsersByRole(ctx context.Context, role string) ([]User, error)
}
