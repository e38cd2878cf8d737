package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/models"
	"github.com/noah-isme/onboarding-portal-api/internal/repository"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:svc_"+name+"?mode=memory&cache=shared"), &gorm.Config{})
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

func createCenter(t *testing.T, db *gorm.DB, name string) models.ServiceCenter {
	t.Helper()
	center := models.ServiceCenter{Name: name, Location: "Denver", Manager: "Sam Ortiz"}
	require.NoError(t, db.Create(&center).Error)
	return center
}

func createClient(t *testing.T, db *gorm.DB, name string, centerID uint, statuses ...models.OnboardingStatus) (models.Client, []models.OnboardingTask) {
	t.Helper()
	client := models.Client{
		LegalName:       name,
		Status:          models.ClientStatusActive,
		Stage:           models.StageDocumentCollection,
		ServiceCenterID: centerID,
		ContactName:     "Robin Hale",
		ContactPhone:    "555-0110",
		ContactEmail:    "robin@example.com",
		MailingAddress:  "42 Elm St",
		BusinessPhone:   "555-0111",
		BusinessEmail:   "books@example.com",
		FederalEIN:      "98-7654321",
	}
	tasks := make([]models.OnboardingTask, 0, len(statuses))
	for i, status := range statuses {
		tasks = append(tasks, models.OnboardingTask{Title: "Checklist " + string(rune('A'+i)), Position: i, Status: status})
	}
	require.NoError(t, repository.NewClientRepository(db).Create(context.Background(), &client, tasks))

	stored, err := repository.NewTaskRepository(db).ListByClient(context.Background(), client.ID)
	require.NoError(t, err)
	return client, stored
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (m *memoryStorage) Upload(_ context.Context, folder, name string, reader io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := folder + "/" + name
	m.objects[key] = payload
	return "https://files.test/" + key, nil
}

func (m *memoryStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []dto.NotificationCreateRequest
}

func (n *recordingNotifier) Publish(_ context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return dto.NotificationResponse{Recipient: payload.Recipient, Type: payload.Type, Message: payload.Message}, nil
}

func (n *recordingNotifier) sent() []dto.NotificationCreateRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]dto.NotificationCreateRequest(nil), n.payloads...)
}

type countingCache struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCache) Invalidate(context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func adminActor() Actor {
	return Actor{ID: 1, Name: "Avery Admin", Role: models.RoleAdmin}
}

func centerActor(centerID uint) Actor {
	return Actor{ID: 2, Name: "Casey Reviewer", Role: models.RoleServiceCenter, ServiceCenterID: uintPtr(centerID)}
}

func clientActor(clientID uint) Actor {
	return Actor{ID: 3, Name: "Jordan Owner", Role: models.RoleClient, ClientID: uintPtr(clientID)}
}

// hookLocker counts acquisitions and runs before once ahead of the wrapped locker, the way a
// competing writer would commit while the caller is still queued for the lock.
type hookLocker struct {
	inner  ClientLocker
	mu     sync.Mutex
	calls  int
	before func(clientID uint)
}

func newHookLocker() *hookLocker {
	return &hookLocker{inner: NewClientLocker(nil, time.Second, time.Second, testLogger())}
}

func (l *hookLocker) Lock(ctx context.Context, clientID uint) (func(), error) {
	l.mu.Lock()
	l.calls++
	before := l.before
	l.before = nil
	l.mu.Unlock()

	if before != nil {
		before(clientID)
	}
	return l.inner.Lock(ctx, clientID)
}

func (l *hookLocker) beforeNextLock(fn func(clientID uint)) {
	l.mu.Lock()
	l.before = fn
	l.mu.Unlock()
}

func (l *hookLocker) acquired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func moveClient(t *testing.T, db *gorm.DB, centerID uint) func(clientID uint) {
	return func(clientID uint) {
		require.NoError(t, db.Model(&models.Client{}).Where("id = ?", clientID).Update("service_center_id", centerID).Error)
	}
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
