package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/models"
	"github.com/noah-isme/onboarding-portal-api/internal/observability"
	"github.com/noah-isme/onboarding-portal-api/internal/onboarding"
	"github.com/noah-isme/onboarding-portal-api/internal/repository"
)

const (
	documentDefaultPageSize = 20
	documentMaxPageSize     = 100
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, folder, name string, reader io.Reader) (string, error)
}

// DocumentService handles document uploads and reviews.
type DocumentService interface {
	Upload(ctx context.Context, actor Actor, clientID, taskID uint, file *multipart.FileHeader, idempotencyKey string) (dto.DocumentUploadResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, documentID uint, payload dto.DocumentStatusUpdateRequest) (dto.DocumentStatusResponse, error)
	List(ctx context.Context, actor Actor, req dto.DocumentListRequest) (dto.DocumentListResponse, error)
}

// DocumentServiceDeps groups the collaborators of the document service.
type DocumentServiceDeps struct {
	Clients      repository.ClientRepository
	Tasks        repository.TaskRepository
	Documents    repository.DocumentRepository
	Onboarding   repository.OnboardingRepository
	Storage      FileStorage
	Locker       ClientLocker
	Validator    *validator.Validate
	Notifier     Notifier
	Cache        CacheInvalidator
	MaxFileBytes int64
}

type documentService struct {
	clients    repository.ClientRepository
	tasks      repository.TaskRepository
	documents  repository.DocumentRepository
	onboarding repository.OnboardingRepository
	storage    FileStorage
	locker     ClientLocker
	validator  *validator.Validate
	notifier   Notifier
	cache      CacheInvalidator
	inspector  fileInspector
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewDocumentService constructs the document service.
func NewDocumentService(deps DocumentServiceDeps, logger zerolog.Logger) DocumentService {
	return &documentService{
		clients:    deps.Clients,
		tasks:      deps.Tasks,
		documents:  deps.Documents,
		onboarding: deps.Onboarding,
		storage:    deps.Storage,
		locker:     deps.Locker,
		validator:  deps.Validator,
		notifier:   deps.Notifier,
		cache:      deps.Cache,
		inspector:  newFileInspector(deps.MaxFileBytes),
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "document_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/onboarding-portal-api/internal/service/document"),
		now:        time.Now,
	}
}

func (s *documentService) Upload(ctx context.Context, actor Actor, clientID, taskID uint, file *multipart.FileHeader, idempotencyKey string) (dto.DocumentUploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "documents.upload", trace.WithAttributes(
		attribute.Int("client.id", int(clientID)),
		attribute.Int("task.id", int(taskID)),
	))
	defer span.End()

	fail := func(err error, reason string) (dto.DocumentUploadResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return dto.DocumentUploadResponse{}, err
	}

	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return fail(err, "client lookup failed")
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		if replay, ok, err := s.replay(ctx, client, taskID, idempotencyKey); err != nil || ok {
			if err != nil {
				return fail(err, "idempotency check failed")
			}
			span.SetAttributes(attribute.Bool("upload.replayed", true))
			return replay, nil
		}
	}

	task, err := s.tasks.GetByID(ctx, client.ID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrTaskNotFound, "task lookup failed")
		}
		return fail(err, "task lookup failed")
	}
	if !onboarding.CanTransition(task.Status, models.StatusReceived) {
		observability.DocumentUploads().WithLabelValues("rejected_status").Inc()
		return fail(fmt.Errorf("%w: task is %s", ErrUploadNotAllowed, task.Status), "task not accepting uploads")
	}

	inspected, err := s.inspector.Inspect(file)
	if err != nil {
		return fail(err, "validation failed")
	}
	span.SetAttributes(
		attribute.String("upload.mime", inspected.MimeType),
		attribute.Int64("upload.size_bytes", inspected.Size()),
	)

	url, err := s.storage.Upload(ctx, fmt.Sprintf("clients/%d", client.ID), inspected.Name, bytes.NewReader(inspected.Content))
	if err != nil {
		observability.DocumentUploads().WithLabelValues("storage").Inc()
		return fail(err, "storage failed")
	}

	release, err := s.locker.Lock(ctx, client.ID)
	if err != nil {
		return fail(err, "client lock unavailable")
	}
	defer release()

	var (
		result   dto.DocumentUploadResponse
		replayed bool
	)
	err = s.onboarding.WithinClient(ctx, client.ID, func(unit repository.OnboardingUnit) error {
		// The client may have been reassigned while waiting for the lock.
		if !actor.CanAccessClient(unit.Client()) {
			return ErrClientNotFound
		}
		client = unit.Client()

		if idempotencyKey != "" {
			existing, err := unit.FindDocumentByIdempotencyKey(idempotencyKey)
			if err == nil {
				if existing.ClientID != client.ID || existing.TaskID != taskID {
					return ErrIdempotencyKeyReused
				}
				replayed = true
				result = s.uploadResponse(existing, unit.Tasks(), unit.Client())
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		tasks := unit.Tasks()
		target := findTask(tasks, taskID)
		if target == nil {
			return ErrTaskNotFound
		}

		now := s.now().UTC()
		document, err := onboarding.RecordDocumentUpload(target, onboarding.UploadedFile{
			Name:      inspected.Name,
			SizeBytes: inspected.Size(),
			MimeType:  inspected.MimeType,
			Checksum:  inspected.Checksum,
			URL:       url,
		}, now)
		if err != nil {
			if errors.Is(err, onboarding.ErrInvalidTransition) {
				return fmt.Errorf("%w: %v", ErrUploadNotAllowed, err)
			}
			return err
		}
		document.UploadedByID = actor.ID
		document.UploadedByRole = actor.NormalizedRole()
		if idempotencyKey != "" {
			document.IdempotencyKey = &idempotencyKey
		}

		if err := unit.SaveTask(target); err != nil {
			return err
		}
		if err := unit.CreateDocument(&document); err != nil {
			return err
		}
		if err := unit.UpdateClientProgress(onboarding.ComputeProgress(tasks), onboarding.DeriveStage(tasks)); err != nil {
			return err
		}

		entry, err := buildActivityLog(ActivityEntry{
			Actor:      actor,
			ClientID:   uintPtr(client.ID),
			Action:     onboarding.ActionDocumentUploaded,
			EntityType: "document",
			EntityID:   uintPtr(document.ID),
			Details:    fmt.Sprintf("%s: %s", onboarding.ActionLabel(onboarding.ActionDocumentUploaded), document.Name),
			Metadata: map[string]interface{}{
				"task_id":    target.ID,
				"file_name":  document.FileName,
				"size_bytes": document.SizeBytes,
				"mime_type":  document.MimeType,
			},
		}, s.sanitizer)
		if err != nil {
			return err
		}
		if err := unit.AppendActivity(&entry); err != nil {
			return err
		}

		result = s.uploadResponse(document, tasks, unit.Client())
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrClientNotFound
		}
		if errors.Is(err, ErrUploadNotAllowed) {
			observability.DocumentUploads().WithLabelValues("rejected_status").Inc()
		}
		s.logger.Warn().Err(err).Uint("client_id", client.ID).Str("url", url).Msg("upload stored but not recorded")
		return fail(err, "persistence failed")
	}

	if replayed {
		result.Replayed = true
		span.SetAttributes(attribute.Bool("upload.replayed", true))
		return result, nil
	}

	observability.DocumentUploads().WithLabelValues("stored").Inc()
	span.SetStatus(codes.Ok, "stored")

	s.notify(ctx, ServiceCenterRecipient(client.ServiceCenterID), NotificationDocumentUploaded,
		fmt.Sprintf("%s uploaded %s", client.LegalName, result.Document.Name))
	s.invalidate(ctx)

	return result, nil
}

func (s *documentService) UpdateStatus(ctx context.Context, actor Actor, documentID uint, payload dto.DocumentStatusUpdateRequest) (dto.DocumentStatusResponse, error) {
	if !actor.CanReview() {
		return dto.DocumentStatusResponse{}, ErrForbidden
	}
	payload.Status = strings.ToLower(strings.TrimSpace(payload.Status))
	if err := s.validator.Struct(payload); err != nil {
		return dto.DocumentStatusResponse{}, err
	}

	newStatus := models.OnboardingStatus(payload.Status)
	reason := strings.TrimSpace(payload.Reason)
	if newStatus == models.StatusRejected && reason == "" {
		return dto.DocumentStatusResponse{}, ErrRejectionReasonRequired
	}

	ctx, span := s.tracer.Start(ctx, "documents.update_status", trace.WithAttributes(
		attribute.Int("document.id", int(documentID)),
		attribute.String("document.status", string(newStatus)),
	))
	defer span.End()

	document, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentStatusResponse{}, ErrDocumentNotFound
		}
		return dto.DocumentStatusResponse{}, err
	}

	client, err := s.scopedClient(ctx, actor, document.ClientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return dto.DocumentStatusResponse{}, ErrDocumentNotFound
		}
		return dto.DocumentStatusResponse{}, err
	}

	release, err := s.locker.Lock(ctx, client.ID)
	if err != nil {
		span.RecordError(err)
		return dto.DocumentStatusResponse{}, err
	}
	defer release()

	var (
		result dto.DocumentStatusResponse
		change onboarding.StatusChange
	)
	err = s.onboarding.WithinClient(ctx, client.ID, func(unit repository.OnboardingUnit) error {
		if !actor.CanAccessClient(unit.Client()) {
			return ErrDocumentNotFound
		}
		client = unit.Client()

		current, err := unit.FindDocument(documentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}

		tasks := unit.Tasks()
		if current.Status == newStatus {
			result = statusResponse(current, findTask(tasks, current.TaskID), unit.Client(), false)
			return nil
		}

		event, err := onboarding.Transition(current.Status, newStatus)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStatusConflict, err)
		}
		if event == onboarding.EventUpload || event == onboarding.EventReupload {
			return fmt.Errorf("%w: %s -> %s requires an upload", ErrStatusConflict, current.Status, newStatus)
		}
		if task := findTask(tasks, current.TaskID); task != nil && task.Status != current.Status {
			return fmt.Errorf("%w: document superseded by a newer upload", ErrStatusConflict)
		}

		change, err = onboarding.ApplyDocumentStatusChange(&current, newStatus, tasks, reason, s.now().UTC())
		if err != nil {
			if errors.Is(err, onboarding.ErrTaskNotLinked) {
				return fmt.Errorf("%w: %v", ErrDocumentNotFound, err)
			}
			return err
		}

		if err := unit.SaveDocument(&current); err != nil {
			return err
		}
		if err := unit.SaveTask(change.Task); err != nil {
			return err
		}
		if err := unit.UpdateClientProgress(onboarding.ComputeProgress(tasks), onboarding.DeriveStage(tasks)); err != nil {
			return err
		}

		metadata := map[string]interface{}{
			"from":    string(change.From),
			"to":      string(change.To),
			"task_id": change.Task.ID,
		}
		if reason != "" {
			metadata["reason"] = reason
		}
		entry, err := buildActivityLog(ActivityEntry{
			Actor:      actor,
			ClientID:   uintPtr(client.ID),
			Action:     change.Action,
			EntityType: "document",
			EntityID:   uintPtr(current.ID),
			Details:    change.Details,
			Metadata:   metadata,
		}, s.sanitizer)
		if err != nil {
			return err
		}
		if err := unit.AppendActivity(&entry); err != nil {
			return err
		}

		result = statusResponse(current, change.Task, unit.Client(), true)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrDocumentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "status change failed")
		return dto.DocumentStatusResponse{}, err
	}

	if !result.Changed {
		return result, nil
	}

	observability.StatusTransitions().WithLabelValues(string(change.From), string(change.To)).Inc()
	s.logger.Info().
		Uint("document_id", documentID).
		Uint("client_id", client.ID).
		Str("from", string(change.From)).
		Str("to", string(change.To)).
		Int("progress", result.OnboardingProgress).
		Msg("document status changed")

	if change.To == models.StatusApproved || change.To == models.StatusRejected {
		message := fmt.Sprintf("%s was %s", result.Document.Name, change.To)
		if change.To == models.StatusRejected {
			message = fmt.Sprintf("%s: %s", message, reason)
		}
		s.notify(ctx, ClientRecipient(client.ID), NotificationDocumentReviewed, message)
	}
	s.invalidate(ctx)

	return result, nil
}

func (s *documentService) List(ctx context.Context, actor Actor, req dto.DocumentListRequest) (dto.DocumentListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DocumentListResponse{}, err
	}

	req.PageSize = clampPageSize(req.PageSize, documentDefaultPageSize, documentMaxPageSize)
	filter := repository.DocumentFilter{
		Search:   strings.TrimSpace(req.Search),
		Status:   strings.TrimSpace(req.Status),
		Type:     strings.TrimSpace(req.Type),
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.ClientID > 0 {
		filter.ClientID = uintPtr(req.ClientID)
	}

	if !actor.scopeDocumentFilter(&filter) {
		return dto.DocumentListResponse{
			Items:      []dto.DocumentResponse{},
			Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, 0),
		}, nil
	}

	documents, total, err := s.documents.List(ctx, filter)
	if err != nil {
		return dto.DocumentListResponse{}, err
	}

	return dto.DocumentListResponse{
		Items:      dto.NewDocumentResponseSlice(documents),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *documentService) replay(ctx context.Context, client models.Client, taskID uint, key string) (dto.DocumentUploadResponse, bool, error) {
	existing, err := s.documents.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentUploadResponse{}, false, nil
		}
		return dto.DocumentUploadResponse{}, false, err
	}
	if existing.ClientID != client.ID || existing.TaskID != taskID {
		return dto.DocumentUploadResponse{}, false, ErrIdempotencyKeyReused
	}

	tasks, err := s.tasks.ListByClient(ctx, client.ID)
	if err != nil {
		return dto.DocumentUploadResponse{}, false, err
	}

	response := s.uploadResponse(existing, tasks, client)
	response.Replayed = true
	return response, true, nil
}

func (s *documentService) uploadResponse(document models.Document, tasks []models.OnboardingTask, client models.Client) dto.DocumentUploadResponse {
	response := dto.DocumentUploadResponse{
		Document:           dto.NewDocumentResponse(document),
		OnboardingProgress: client.OnboardingProgress,
		Stage:              string(client.Stage),
	}
	if task := findTask(tasks, document.TaskID); task != nil {
		response.Task = dto.NewTaskResponse(*task)
	}
	return response
}

func (s *documentService) scopedClient(ctx context.Context, actor Actor, id uint) (models.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Client{}, ErrClientNotFound
		}
		return models.Client{}, err
	}
	if !actor.CanAccessClient(client) {
		return models.Client{}, ErrClientNotFound
	}
	return client, nil
}

func (s *documentService) notify(ctx context.Context, recipient, kind, message string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{Recipient: recipient, Type: kind, Message: message}); err != nil {
		s.logger.Warn().Err(err).Str("recipient", recipient).Msg("failed to dispatch notification")
	}
}

func (s *documentService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func statusResponse(document models.Document, task *models.OnboardingTask, client models.Client, changed bool) dto.DocumentStatusResponse {
	response := dto.DocumentStatusResponse{
		Document:           dto.NewDocumentResponse(document),
		OnboardingProgress: client.OnboardingProgress,
		Stage:              string(client.Stage),
		Changed:            changed,
	}
	if task != nil {
		taskResponse := dto.NewTaskResponse(*task)
		response.Task = &taskResponse
	}
	return response
}

func findTask(tasks []models.OnboardingTask, id uint) *models.OnboardingTask {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}
