package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// DocumentFilter narrows document queries.
type DocumentFilter struct {
	Search          string
	Status          string
	Type            string
	ClientID        *uint
	ServiceCenterID *uint
	Page            int
	PageSize        int
}

// DocumentRepository reads uploaded documents.
type DocumentRepository interface {
	List(ctx context.Context, filter DocumentFilter) ([]models.Document, int64, error)
	GetByID(ctx context.Context, id uint) (models.Document, error)
	FindByIdempotencyKey(ctx context.Context, key string) (models.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository constructs the document repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]models.Document, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Document{})

	if filter.Search != "" {
		like := containsPattern(filter.Search)
		query = query.Where(searchClause("documents.name", "documents.file_name"), like, like)
	}
	if filter.Status != "" {
		query = query.Where("documents.status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("documents.type = ?", filter.Type)
	}
	if filter.ClientID != nil {
		query = query.Where("documents.client_id = ?", *filter.ClientID)
	}
	if filter.ServiceCenterID != nil {
		query = query.Where("documents.client_id IN (?)",
			r.db.Model(&models.Client{}).Select("id").Where("service_center_id = ?", *filter.ServiceCenterID))
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var documents []models.Document
	if err := query.Order("documents.created_at DESC").Order("documents.id DESC").Find(&documents).Error; err != nil {
		return nil, 0, err
	}
	return documents, total, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uint) (models.Document, error) {
	var document models.Document
	if err := r.db.WithContext(ctx).First(&document, id).Error; err != nil {
		return models.Document{}, err
	}
	return document, nil
}

func (r *documentRepository) FindByIdempotencyKey(ctx context.Context, key string) (models.Document, error) {
	var document models.Document
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&document).Error; err != nil {
		return models.Document{}, err
	}
	return document, nil
}
