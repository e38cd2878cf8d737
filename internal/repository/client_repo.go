package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// ClientFilter defines filters for listing clients.
type ClientFilter struct {
	Search          string
	Status          string
	Stage           string
	ServiceCenterID *uint
	ClientID        *uint
	Sort            string
	Page            int
	PageSize        int
}

// ClientRepository exposes persistence helpers for clients.
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client, tasks []models.OnboardingTask) error
	List(ctx context.Context, filter ClientFilter) ([]models.Client, int64, error)
	GetByID(ctx context.Context, id uint) (models.Client, error)
}

var clientSorts = map[string]string{
	"name":      "legal_name ASC",
	"-name":     "legal_name DESC",
	"progress":  "onboarding_progress ASC",
	"-progress": "onboarding_progress DESC",
	"updated":   "updated_at ASC",
	"-updated":  "updated_at DESC",
	"created":   "created_at ASC",
	"-created":  "created_at DESC",
}

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository constructs the client repository.
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *models.Client, tasks []models.OnboardingTask) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("ServiceCenter").Create(client).Error; err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}
		for i := range tasks {
			tasks[i].ClientID = client.ID
		}
		return tx.Create(&tasks).Error
	})
}

func (r *clientRepository) List(ctx context.Context, filter ClientFilter) ([]models.Client, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Client{})

	if filter.Search != "" {
		like := containsPattern(filter.Search)
		query = query.Where(searchClause("legal_name", "contact_name", "contact_email"), like, like, like)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.ServiceCenterID != nil {
		query = query.Where("service_center_id = ?", *filter.ServiceCenterID)
	}
	if filter.ClientID != nil {
		query = query.Where("id = ?", *filter.ClientID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort, ok := clientSorts[filter.Sort]
	if !ok {
		sort = "updated_at DESC"
	}
	query = query.Order(sort).Order("id DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var clients []models.Client
	if err := query.Preload("ServiceCenter").Find(&clients).Error; err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}

func (r *clientRepository) GetByID(ctx context.Context, id uint) (models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).Preload("ServiceCenter").Where("id = ?", id).First(&client).Error; err != nil {
		return models.Client{}, err
	}
	return client, nil
}
