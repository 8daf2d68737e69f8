package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timebank-go/internal/domain/apperr"
	"timebank-go/internal/domain/identity"
)

const maxNameLength = 100

var (
	DefaultWeightFactor = decimal.NewFromInt(1)
	MaxWeightFactor     = decimal.NewFromInt(5)
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListActive(ctx context.Context) ([]Task, error) {
	return s.repo.ListTasks(ctx, true)
}

func (s *Service) ListAll(ctx context.Context, principal identity.Principal) ([]Task, error) {
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.repo.ListTasks(ctx, false)
}

func (s *Service) Get(ctx context.Context, taskID int64) (*Task, error) {
	return s.repo.GetTaskByID(ctx, taskID)
}

func (s *Service) Create(ctx context.Context, principal identity.Principal, input CreateInput) (*Task, error) {
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}

	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	weight := DefaultWeightFactor
	if input.WeightFactor != nil {
		weight = *input.WeightFactor
	}
	weight, err = ValidateWeightFactor(weight)
	if err != nil {
		return nil, err
	}

	hours, err := validateFixedHours(input.Hours)
	if err != nil {
		return nil, err
	}

	task := Task{
		Name:         name,
		Hours:        hours,
		WeightFactor: weight,
		Description:  strings.TrimSpace(input.Description),
		IsActive:     true,
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		count, err := tx.CountTasksByName(ctx, name, 0)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrTaskNameTaken
		}
		return tx.CreateTask(ctx, &task)
	})
	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *Service) Update(ctx context.Context, principal identity.Principal, input UpdateInput) (*Task, error) {
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}

	var updated Task
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		task, err := tx.GetTaskByID(ctx, input.ID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			name, err := validateName(*input.Name)
			if err != nil {
				return err
			}
			count, err := tx.CountTasksByName(ctx, name, task.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrTaskNameTaken
			}
			task.Name = name
		}
		if input.Hours.Set {
			hours, err := validateFixedHours(input.Hours.Value)
			if err != nil {
				return err
			}
			task.Hours = hours
		}
		if input.WeightFactor != nil {
			weight, err := ValidateWeightFactor(*input.WeightFactor)
			if err != nil {
				return err
			}
			task.WeightFactor = weight
		}
		if input.Description != nil {
			task.Description = strings.TrimSpace(*input.Description)
		}
		if input.IsActive != nil {
			task.IsActive = *input.IsActive
		}
		task.UpdatedAt = s.now().UTC()

		if err := tx.UpdateTask(ctx, task); err != nil {
			return err
		}
		updated = *task
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, principal identity.Principal, taskID int64) error {
	if err := principal.RequireAdmin(); err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		inUse, err := tx.CountEntriesByTaskID(ctx, taskID)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return ErrTaskInUse
		}
		deleted, err := tx.DeleteTask(ctx, taskID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrTaskNotFound
		}
		return nil
	})
}

func (s *Service) Deactivate(ctx context.Context, principal identity.Principal, taskID int64) (*Task, error) {
	inactive := false
	return s.Update(ctx, principal, UpdateInput{ID: taskID, IsActive: &inactive})
}

func (s *Service) SetWeightFactor(ctx context.Context, principal identity.Principal, taskID int64, factor decimal.Decimal) (*Task, error) {
	return s.Update(ctx, principal, UpdateInput{ID: taskID, WeightFactor: &factor})
}

// ValidateWeightFactor rounds factor to two places and checks it lies in (0, 5].
func ValidateWeightFactor(factor decimal.Decimal) (decimal.Decimal, error) {
	factor = factor.Round(2)
	if !factor.IsPositive() || factor.GreaterThan(MaxWeightFactor) {
		return decimal.Zero, apperr.Invalid("weight factor must be greater than 0 and at most %s", MaxWeightFactor.String())
	}
	return factor, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid("name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return "", apperr.Invalid("name must be at most %d characters", maxNameLength)
	}
	return name, nil
}

func validateFixedHours(hours *decimal.Decimal) (*decimal.Decimal, error) {
	if hours == nil {
		return nil, nil
	}
	rounded := hours.Round(2)
	if !rounded.IsPositive() {
		return nil, apperr.Invalid("hours must be positive")
	}
	return &rounded, nil
}
