package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// OnboardingUnit is the transactional view of one client and its tasks. Tasks returns the
// loaded slice itself so edits made through it are visible to later progress calculations.
type OnboardingUnit interface {
	Client() models.Client
	Tasks() []models.OnboardingTask
	FindDocument(id uint) (models.Document, error)
	FindDocumentByIdempotencyKey(key string) (models.Document, error)
	SaveTask(task *models.OnboardingTask) error
	CreateDocument(document *models.Document) error
	SaveDocument(document *models.Document) error
	UpdateClientProgress(progress int, stage models.ClientStage) error
	UpdateClient(updates map[string]interface{}) error
	AppendActivity(entry *models.ActivityLog) error
}

// OnboardingRepository runs task and document mutations for a client in one transaction.
type OnboardingRepository interface {
	WithinClient(ctx context.Context, clientID uint, fn func(unit OnboardingUnit) error) error
}

type onboardingRepository struct {
	db *gorm.DB
}

// NewOnboardingRepository constructs the onboarding repository.
func NewOnboardingRepository(db *gorm.DB) OnboardingRepository {
	return &onboardingRepository{db: db}
}

// WithinClient locks the client row, loads it with its service center and tasks and hands them to
// fn. Any error returned by fn rolls the transaction back.
func (r *onboardingRepository) WithinClient(ctx context.Context, clientID uint, fn func(unit OnboardingUnit) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unit := &onboardingUnit{tx: tx}
		if err := unit.loadClient(tx.Clauses(clause.Locking{Strength: "UPDATE"}), clientID); err != nil {
			return err
		}

		if err := tx.Where("client_id = ?", clientID).Order("position ASC").Order("id ASC").Find(&unit.tasks).Error; err != nil {
			return err
		}

		return fn(unit)
	})
}

type onboardingUnit struct {
	tx     *gorm.DB
	client models.Client
	tasks  []models.OnboardingTask
}

func (u *onboardingUnit) loadClient(query *gorm.DB, clientID uint) error {
	var client models.Client
	if err := query.Where("id = ?", clientID).First(&client).Error; err != nil {
		return err
	}
	if err := u.tx.Where("id = ?", client.ServiceCenterID).Limit(1).Find(&client.ServiceCenter).Error; err != nil {
		return err
	}
	u.client = client
	return nil
}

func (u *onboardingUnit) Client() models.Client {
	return u.client
}

func (u *onboardingUnit) Tasks() []models.OnboardingTask {
	return u.tasks
}

func (u *onboardingUnit) FindDocument(id uint) (models.Document, error) {
	var document models.Document
	if err := u.tx.Where("id = ? AND client_id = ?", id, u.client.ID).First(&document).Error; err != nil {
		return models.Document{}, err
	}
	return document, nil
}

func (u *onboardingUnit) FindDocumentByIdempotencyKey(key string) (models.Document, error) {
	var document models.Document
	if err := u.tx.Where("idempotency_key = ?", key).First(&document).Error; err != nil {
		return models.Document{}, err
	}
	return document, nil
}

func (u *onboardingUnit) SaveTask(task *models.OnboardingTask) error {
	return u.tx.Save(task).Error
}

func (u *onboardingUnit) CreateDocument(document *models.Document) error {
	return u.tx.Create(document).Error
}

func (u *onboardingUnit) SaveDocument(document *models.Document) error {
	return u.tx.Save(document).Error
}

func (u *onboardingUnit) UpdateClientProgress(progress int, stage models.ClientStage) error {
	if err := u.tx.Model(&models.Client{}).Where("id = ?", u.client.ID).Updates(map[string]interface{}{
		"onboarding_progress": progress,
		"stage":               stage,
	}).Error; err != nil {
		return err
	}
	u.client.OnboardingProgress = progress
	u.client.Stage = stage
	return nil
}

// UpdateClient writes the given columns and reloads the client so Client reflects them.
func (u *onboardingUnit) UpdateClient(updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if err := u.tx.Model(&models.Client{}).Where("id = ?", u.client.ID).Updates(updates).Error; err != nil {
		return err
	}
	return u.loadClient(u.tx, u.client.ID)
}

func (u *onboardingUnit) AppendActivity(entry *models.ActivityLog) error {
	return u.tx.Create(entry).Error
}
