package tasks

import (
	"time"

	"github.com/shopspring/decimal"
)

type Task struct {
	ID           int64            `gorm:"primaryKey"`
	Name         string           `gorm:"size:100;not null;uniqueIndex"`
	Hours        *decimal.Decimal `gorm:"type:numeric(6,2)"`
	WeightFactor decimal.Decimal  `gorm:"type:numeric(4,2);not null"`
	Description  string           `gorm:"type:text;not null"`
	IsActive     bool             `gorm:"not null"`
	CreatedAt    time.Time        `gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime"`
}

func (Task) TableName() string {
	return "household_tasks"
}

type CreateInput struct {
	Name         string
	Hours        *decimal.Decimal
	WeightFactor *decimal.Decimal
	Description  string
}

type OptionalNullableDecimal struct {
	Set   bool
	Value *decimal.Decimal
}

// UpdateInput is a partial patch: nil fields are left untouched.
type UpdateInput struct {
	ID           int64
	Name         *string
	Hours        OptionalNullableDecimal
	WeightFactor *decimal.Decimal
	Description  *string
	IsActive     *bool
}
