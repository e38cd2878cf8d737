package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.ServiceCenter{},
		&models.Client{},
		&models.OnboardingTask{},
		&models.Document{},
		&models.ActivityLog{},
		&models.Notification{},
	))
	return db
}

func seedCenter(t *testing.T, db *gorm.DB, name string) models.ServiceCenter {
	t.Helper()
	center := models.ServiceCenter{Name: name, Location: "Austin", Manager: "Dana Reyes"}
	require.NoError(t, db.Create(&center).Error)
	return center
}

func seedClient(t *testing.T, db *gorm.DB, name string, centerID uint, statuses ...models.OnboardingStatus) (models.Client, []models.OnboardingTask) {
	t.Helper()
	client := models.Client{
		LegalName:       name,
		Status:          models.ClientStatusActive,
		Stage:           models.StageDocumentCollection,
		ServiceCenterID: centerID,
		ContactName:     "Pat Lee",
		ContactPhone:    "555-0100",
		ContactEmail:    strings.ToLower(strings.ReplaceAll(name, " ", "")) + "@example.com",
		MailingAddress:  "1 Main St",
		BusinessPhone:   "555-0101",
		BusinessEmail:   "office@example.com",
		FederalEIN:      "12-3456789",
	}
	tasks := make([]models.OnboardingTask, 0, len(statuses))
	for i, status := range statuses {
		tasks = append(tasks, models.OnboardingTask{Title: "Task " + string(rune('A'+i)), Position: i, Status: status})
	}
	require.NoError(t, NewClientRepository(db).Create(context.Background(), &client, tasks))
	return client, tasks
}
