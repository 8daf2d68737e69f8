package tasks

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	entriesdomain "timebank-go/internal/domain/entries"
	tasksdomain "timebank-go/internal/domain/tasks"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(tasksdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) ListTasks(ctx context.Context, activeOnly bool) ([]tasksdomain.Task, error) {
	query := r.db.WithContext(ctx).Model(&tasksdomain.Task{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var tasks []tasksdomain.Task
	if err := query.Order("name asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *PostgresRepository) GetTaskByID(ctx context.Context, taskID int64) (*tasksdomain.Task, error) {
	var task tasksdomain.Task
	if err := r.db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tasksdomain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *PostgresRepository) CreateTask(ctx context.Context, task *tasksdomain.Task) error {
	return mapWriteError(r.db.WithContext(ctx).Create(task).Error)
}

func (r *PostgresRepository) UpdateTask(ctx context.Context, task *tasksdomain.Task) error {
	result := r.db.WithContext(ctx).
		Model(&tasksdomain.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"name":          task.Name,
			"hours":         task.Hours,
			"weight_factor": task.WeightFactor,
			"description":   task.Description,
			"is_active":     task.IsActive,
			"updated_at":    task.UpdatedAt,
		})
	if result.Error != nil {
		return mapWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return tasksdomain.ErrTaskNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteTask(ctx context.Context, taskID int64) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&tasksdomain.Task{}, "id = ?", taskID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return false, tasksdomain.ErrTaskInUse
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) CountTasksByName(ctx context.Context, name string, excludeID int64) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&tasksdomain.Task{}).
		Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) CountEntriesByTaskID(ctx context.Context, taskID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entriesdomain.Entry{}).
		Where("task_id = ?", taskID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func mapWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return tasksdomain.ErrTaskNameTaken
	}
	return err
}
