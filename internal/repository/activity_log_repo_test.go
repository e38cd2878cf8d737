package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

func TestActivityLogRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	clientID := uint(7)
	day := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	entries := []models.ActivityLog{
		{ClientID: &clientID, ActorName: "Admin User", ActorRole: models.RoleAdmin, Action: "client.created", EntityType: "client", Details: "Client Created: Acme", CreatedAt: day.Add(-24 * time.Hour)},
		{ClientID: &clientID, ActorName: "Reviewer", ActorRole: models.RoleServiceCenter, Action: "document.approved", EntityType: "document", Details: "Document Approved: Bank Statements", CreatedAt: day},
		{ActorName: "Admin User", ActorRole: models.RoleAdmin, Action: "service_center.created", EntityType: "service_center", Details: "Service Center Created: North", CreatedAt: day.Add(time.Hour)},
	}
	for i := range entries {
		require.NoError(t, repo.Create(context.Background(), &entries[i]))
	}

	all, total, err := repo.List(context.Background(), ActivityLogFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	require.Equal(t, "service_center.created", all[0].Action, "expected newest entry first")

	found, total, err := repo.List(context.Background(), ActivityLogFilter{Search: "bank", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "document.approved", found[0].Action)

	found, total, err = repo.List(context.Background(), ActivityLogFilter{ClientID: &clientID, ActorRole: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "client.created", found[0].Action)

	from := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	_, total, err = repo.List(context.Background(), ActivityLogFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	page, total, err := repo.List(context.Background(), ActivityLogFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, page, 1)
}

func TestDocumentRepositoryListByServiceCenter(t *testing.T) {
	db := setupTestDB(t)
	north := seedCenter(t, db, "North")
	south := seedCenter(t, db, "South")
	acme, acmeTasks := seedClient(t, db, "Acme Corp", north.ID, models.StatusReceived)
	beta, betaTasks := seedClient(t, db, "Beta Labs", south.ID, models.StatusRejected)

	key := "upload-1"
	docs := []models.Document{
		{ClientID: acme.ID, TaskID: acmeTasks[0].ID, Name: "Bank Statements", Type: "Bank Statements", Status: models.StatusReceived, FileName: "march.pdf", IdempotencyKey: &key},
		{ClientID: beta.ID, TaskID: betaTasks[0].ID, Name: "Payroll Reports", Type: "Payroll Reports", Status: models.StatusRejected, FileName: "payroll.csv"},
	}
	require.NoError(t, db.Create(&docs).Error)

	repo := NewDocumentRepository(db)
	found, total, err := repo.List(context.Background(), DocumentFilter{ServiceCenterID: &north.ID, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Bank Statements", found[0].Name)

	_, total, err = repo.List(context.Background(), DocumentFilter{Search: "PAYROLL", Status: string(models.StatusRejected)})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	byKey, err := repo.FindByIdempotencyKey(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, docs[0].ID, byKey.ID)
}

func TestDashboardRepositoryTotals(t *testing.T) {
	db := setupTestDB(t)
	north := seedCenter(t, db, "North")
	acme, acmeTasks := seedClient(t, db, "Acme Corp", north.ID, models.StatusReceived)
	seedClient(t, db, "Beta Labs", north.ID)
	require.NoError(t, db.Model(&models.Client{}).Where("id = ?", acme.ID).Updates(map[string]interface{}{"onboarding_progress": 50, "stage": models.StageReview}).Error)
	require.NoError(t, db.Create(&models.Document{ClientID: acme.ID, TaskID: acmeTasks[0].ID, Name: "Task A", Type: "Task A", Status: models.StatusReceived, FileName: "a.pdf"}).Error)

	totals, err := NewDashboardRepository(db).Totals(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), totals.TotalClients)
	require.Equal(t, int64(1), totals.ClientsByStage[string(models.StageReview)])
	require.Equal(t, int64(1), totals.ClientsByStage[string(models.StageDocumentCollection)])
	require.Equal(t, int64(1), totals.AwaitingReview)
	require.Equal(t, int64(1), totals.ServiceCenters)
	require.InDelta(t, 25.0, totals.AverageProgress, 0.001)
}

func TestNotificationRepositoryRecipientScoping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	mine := models.Notification{Recipient: "service_center:1", Type: "client.assigned", Message: "Acme Corp assigned"}
	other := models.Notification{Recipient: "service_center:2", Type: "client.assigned", Message: "Beta Labs assigned"}
	require.NoError(t, repo.Create(context.Background(), &mine))
	require.NoError(t, repo.Create(context.Background(), &other))

	list, err := repo.ListByRecipient(context.Background(), "service_center:1", NotificationFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)

	unread, err := repo.CountUnread(context.Background(), "service_center:1")
	require.NoError(t, err)
	require.Equal(t, int64(1), unread)

	_, err = repo.MarkRead(context.Background(), other.ID, "service_center:1")
	require.Error(t, err)

	read, err := repo.MarkRead(context.Background(), mine.ID, "service_center:1")
	require.NoError(t, err)
	require.True(t, read.Read)

	unreadOnly, err := repo.ListByRecipient(context.Background(), "service_center:1", NotificationFilter{Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Empty(t, unreadOnly)
}

func TestNotificationRepositoryMarkAllRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	for _, message := range []string{"W-9 uploaded", "EIN Letter uploaded"} {
		require.NoError(t, repo.Create(ctx, &models.Notification{Recipient: "service_center:1", Type: "document.uploaded", Message: message}))
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{Recipient: "client:4", Type: "document.reviewed", Message: "W-9 was approved"}))

	updated, err := repo.MarkAllRead(ctx, "service_center:1")
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	unread, err := repo.CountUnread(ctx, "service_center:1")
	require.NoError(t, err)
	require.Zero(t, unread)

	untouched, err := repo.CountUnread(ctx, "client:4")
	require.NoError(t, err)
	require.Equal(t, int64(1), untouched)

	again, err := repo.MarkAllRead(ctx, "service_center:1")
	require.NoError(t, err)
	require.Zero(t, again)
}
