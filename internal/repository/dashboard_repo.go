package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// DashboardTotals aggregates portal-wide counters.
type DashboardTotals struct {
	TotalClients      int64
	ClientsByStage    map[string]int64
	AwaitingReview    int64
	RejectedDocuments int64
	ServiceCenters    int64
	AverageProgress   float64
}

// DashboardRepository computes dashboard aggregates.
type DashboardRepository interface {
	Totals(ctx context.Context) (DashboardTotals, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository constructs the dashboard repository.
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) Totals(ctx context.Context) (DashboardTotals, error) {
	db := r.db.WithContext(ctx)
	totals := DashboardTotals{ClientsByStage: map[string]int64{}}

	if err := db.Model(&models.Client{}).Count(&totals.TotalClients).Error; err != nil {
		return DashboardTotals{}, err
	}

	var stages []struct {
		Stage string
		Total int64
	}
	if err := db.Model(&models.Client{}).Select("stage, COUNT(*) AS total").Group("stage").Scan(&stages).Error; err != nil {
		return DashboardTotals{}, err
	}
	for _, row := range stages {
		totals.ClientsByStage[row.Stage] = row.Total
	}

	if err := db.Model(&models.Document{}).Where("status = ?", models.StatusReceived).Count(&totals.AwaitingReview).Error; err != nil {
		return DashboardTotals{}, err
	}
	if err := db.Model(&models.Document{}).Where("status = ?", models.StatusRejected).Count(&totals.RejectedDocuments).Error; err != nil {
		return DashboardTotals{}, err
	}
	if err := db.Model(&models.ServiceCenter{}).Count(&totals.ServiceCenters).Error; err != nil {
		return DashboardTotals{}, err
	}

	var average struct{ Value float64 }
	if err := db.Model(&models.Client{}).Select("COALESCE(AVG(onboarding_progress), 0) AS value").Scan(&average).Error; err != nil {
		return DashboardTotals{}, err
	}
	totals.AverageProgress = average.Value

	return totals, nil
}
