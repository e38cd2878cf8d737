package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// TaskRepository reads onboarding tasks.
type TaskRepository interface {
	ListByClient(ctx context.Context, clientID uint) ([]models.OnboardingTask, error)
	GetByID(ctx context.Context, clientID, taskID uint) (models.OnboardingTask, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository constructs the task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) ListByClient(ctx context.Context, clientID uint) ([]models.OnboardingTask, error) {
	var tasks []models.OnboardingTask
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("position ASC").
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) GetByID(ctx context.Context, clientID, taskID uint) (models.OnboardingTask, error) {
	var task models.OnboardingTask
	if err := r.db.WithContext(ctx).Where("id = ? AND client_id = ?", taskID, clientID).First(&task).Error; err != nil {
		return models.OnboardingTask{}, err
	}
	return task, nil
}
