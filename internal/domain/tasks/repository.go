package tasks

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	ListTasks(ctx context.Context, activeOnly bool) ([]Task, error)
	GetTaskByID(ctx context.Context, taskID int64) (*Task, error)
	CreateTask(ctx context.Context, task *Task) error
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, taskID int64) (bool, error)
	CountTasksByName(ctx context.Context, name string, excludeID int64) (int64, error)
	CountEntriesByTaskID(ctx context.Context, taskID int64) (int64, error)
}
