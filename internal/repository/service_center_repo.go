package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// ServiceCenterWithLoad pairs a service center with the number of clients assigned to it.
type ServiceCenterWithLoad struct {
	models.ServiceCenter
	ClientsAssigned int64
}

// ServiceCenterRepository persists service centers.
type ServiceCenterRepository interface {
	Create(ctx context.Context, center *models.ServiceCenter) error
	List(ctx context.Context, search string) ([]ServiceCenterWithLoad, error)
	GetByID(ctx context.Context, id uint) (models.ServiceCenter, error)
	FindByName(ctx context.Context, name string) (models.ServiceCenter, error)
	CountClients(ctx context.Context, id uint) (int64, error)
}

type serviceCenterRepository struct {
	db *gorm.DB
}

// NewServiceCenterRepository constructs the service center repository.
func NewServiceCenterRepository(db *gorm.DB) ServiceCenterRepository {
	return &serviceCenterRepository{db: db}
}

func (r *serviceCenterRepository) Create(ctx context.Context, center *models.ServiceCenter) error {
	return r.db.WithContext(ctx).Create(center).Error
}

func (r *serviceCenterRepository) List(ctx context.Context, search string) ([]ServiceCenterWithLoad, error) {
	query := r.db.WithContext(ctx).Model(&models.ServiceCenter{})
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		like := containsPattern(trimmed)
		query = query.Where(searchClause("name", "location", "manager"), like, like, like)
	}

	var centers []models.ServiceCenter
	if err := query.Order("name ASC").Find(&centers).Error; err != nil {
		return nil, err
	}
	if len(centers) == 0 {
		return []ServiceCenterWithLoad{}, nil
	}

	ids := make([]uint, 0, len(centers))
	for _, center := range centers {
		ids = append(ids, center.ID)
	}

	var rows []struct {
		ServiceCenterID uint
		Total           int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Client{}).
		Select("service_center_id, COUNT(*) AS total").
		Where("service_center_id IN ?", ids).
		Group("service_center_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ServiceCenterID] = row.Total
	}

	result := make([]ServiceCenterWithLoad, 0, len(centers))
	for _, center := range centers {
		result = append(result, ServiceCenterWithLoad{ServiceCenter: center, ClientsAssigned: counts[center.ID]})
	}
	return result, nil
}

func (r *serviceCenterRepository) GetByID(ctx context.Context, id uint) (models.ServiceCenter, error) {
	var center models.ServiceCenter
	if err := r.db.WithContext(ctx).First(&center, id).Error; err != nil {
		return models.ServiceCenter{}, err
	}
	return center, nil
}

func (r *serviceCenterRepository) FindByName(ctx context.Context, name string) (models.ServiceCenter, error) {
	var center models.ServiceCenter
	if err := r.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&center).Error; err != nil {
		return models.ServiceCenter{}, err
	}
	return center, nil
}

func (r *serviceCenterRepository) CountClients(ctx context.Context, id uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Client{}).Where("service_center_id = ?", id).Count(&total).Error
	return total, err
}
