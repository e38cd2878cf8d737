package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/models"
	"github.com/noah-isme/onboarding-portal-api/internal/onboarding"
	"github.com/noah-isme/onboarding-portal-api/internal/repository"
)

const (
	clientDefaultPageSize = 20
	clientMaxPageSize     = 100
)

// Notifier delivers workflow notifications.
type Notifier interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
}

// CacheInvalidator drops cached aggregates after writes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// ClientService manages clients and their service center assignment.
type ClientService interface {
	Create(ctx context.Context, actor Actor, payload dto.ClientCreateRequest) (dto.ClientDetailResponse, error)
	List(ctx context.Context, actor Actor, req dto.ClientListRequest) (dto.ClientListResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ClientDetailResponse, error)
	ListTasks(ctx context.Context, actor Actor, clientID uint) ([]dto.TaskResponse, error)
	ReassignServiceCenter(ctx context.Context, actor Actor, clientID uint, payload dto.ReassignServiceCenterRequest) (dto.ClientResponse, error)
	UpdateProfile(ctx context.Context, actor Actor, clientID uint, payload dto.ClientUpdateRequest) (dto.ClientDetailResponse, error)
}

type clientService struct {
	clients    repository.ClientRepository
	centers    repository.ServiceCenterRepository
	tasks      repository.TaskRepository
	onboarding repository.OnboardingRepository
	locker     ClientLocker
	validator  *validator.Validate
	activity   ActivityRecorder
	notifier   Notifier
	cache      CacheInvalidator
	sanitizer  *bluemonday.Policy
	templates  []string
	logger     zerolog.Logger
}

// ClientServiceDeps groups the collaborators of the client service.
type ClientServiceDeps struct {
	Clients        repository.ClientRepository
	ServiceCenters repository.ServiceCenterRepository
	Tasks          repository.TaskRepository
	Onboarding     repository.OnboardingRepository
	Locker         ClientLocker
	Validator      *validator.Validate
	Activity       ActivityRecorder
	Notifier       Notifier
	Cache          CacheInvalidator
	TaskTemplates  []string
}

// NewClientService constructs the client service.
func NewClientService(deps ClientServiceDeps, logger zerolog.Logger) ClientService {
	templates := deps.TaskTemplates
	if len(templates) == 0 {
		templates = onboarding.DefaultTaskTitles
	}
	return &clientService{
		clients:    deps.Clients,
		centers:    deps.ServiceCenters,
		tasks:      deps.Tasks,
		onboarding: deps.Onboarding,
		locker:     deps.Locker,
		validator:  deps.Validator,
		activity:   deps.Activity,
		notifier:   deps.Notifier,
		cache:      deps.Cache,
		sanitizer:  bluemonday.StrictPolicy(),
		templates:  templates,
		logger:     logger.With().Str("component", "client_service").Logger(),
	}
}

func (s *clientService) Create(ctx context.Context, actor Actor, payload dto.ClientCreateRequest) (dto.ClientDetailResponse, error) {
	payload.LegalName = strings.TrimSpace(payload.LegalName)
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClientDetailResponse{}, err
	}

	center, err := s.centers.GetByID(ctx, payload.ServiceCenterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClientDetailResponse{}, ErrServiceCenterNotFound
		}
		return dto.ClientDetailResponse{}, err
	}

	tasks := make([]models.OnboardingTask, 0, len(s.templates))
	for i, title := range s.templates {
		tasks = append(tasks, models.OnboardingTask{
			Title:    title,
			Position: i,
			Status:   models.StatusPending,
		})
	}

	client := models.Client{
		LegalName:            payload.LegalName,
		Status:               models.ClientStatusActive,
		Stage:                onboarding.DeriveStage(tasks),
		OnboardingProgress:   onboarding.ComputeProgress(tasks),
		ServiceCenterID:      center.ID,
		ContactName:          strings.TrimSpace(payload.ContactName),
		ContactTitle:         strings.TrimSpace(payload.ContactTitle),
		ContactPhone:         strings.TrimSpace(payload.ContactPhone),
		ContactEmail:         strings.ToLower(strings.TrimSpace(payload.ContactEmail)),
		MailingAddress:       strings.TrimSpace(payload.MailingAddress),
		PhysicalAddress:      strings.TrimSpace(payload.PhysicalAddress),
		BusinessPhone:        strings.TrimSpace(payload.BusinessPhone),
		BusinessEmail:        strings.ToLower(strings.TrimSpace(payload.BusinessEmail)),
		Website:              strings.TrimSpace(payload.Website),
		FederalEIN:           strings.TrimSpace(payload.FederalEIN),
		StateTaxID:           strings.TrimSpace(payload.StateTaxID),
		EntityType:           strings.TrimSpace(payload.EntityType),
		StateOfIncorporation: strings.TrimSpace(payload.StateOfIncorporation),
		FiscalYearEnd:        strings.TrimSpace(payload.FiscalYearEnd),
		AccountingSoftware:   strings.TrimSpace(payload.AccountingSoftware),
		EmployeeCount:        payload.EmployeeCount,
		Notes:                strings.TrimSpace(payload.Notes),
	}

	if err := s.clients.Create(ctx, &client, tasks); err != nil {
		return dto.ClientDetailResponse{}, err
	}
	client.ServiceCenter = center

	s.record(ctx, ActivityEntry{
		Actor:      actor,
		ClientID:   uintPtr(client.ID),
		Action:     onboarding.ActionClientCreated,
		EntityType: "client",
		EntityID:   uintPtr(client.ID),
		Details:    fmt.Sprintf("%s: %s", onboarding.ActionLabel(onboarding.ActionClientCreated), client.LegalName),
		Metadata: map[string]interface{}{
			"service_center_id": center.ID,
			"tasks":             len(tasks),
			"contact_email":     client.ContactEmail,
		},
	})
	s.notify(ctx, ServiceCenterRecipient(center.ID), NotificationClientAssigned,
		fmt.Sprintf("New client %s assigned to %s", client.LegalName, center.Name))
	s.invalidate(ctx)

	return dto.NewClientDetailResponse(client, tasks), nil
}

func (s *clientService) List(ctx context.Context, actor Actor, req dto.ClientListRequest) (dto.ClientListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ClientListResponse{}, err
	}

	req.PageSize = clampPageSize(req.PageSize, clientDefaultPageSize, clientMaxPageSize)
	filter := repository.ClientFilter{
		Search:   strings.TrimSpace(req.Search),
		Status:   strings.TrimSpace(req.Status),
		Stage:    strings.TrimSpace(req.Stage),
		Sort:     strings.TrimSpace(req.Sort),
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.ServiceCenterID > 0 {
		filter.ServiceCenterID = uintPtr(req.ServiceCenterID)
	}

	if !actor.scopeClientFilter(&filter) {
		return dto.ClientListResponse{
			Items:      []dto.ClientResponse{},
			Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, 0),
		}, nil
	}

	clients, total, err := s.clients.List(ctx, filter)
	if err != nil {
		return dto.ClientListResponse{}, err
	}

	items := make([]dto.ClientResponse, 0, len(clients))
	for _, client := range clients {
		items = append(items, dto.NewClientResponse(client))
	}

	return dto.ClientListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *clientService) Get(ctx context.Context, actor Actor, id uint) (dto.ClientDetailResponse, error) {
	client, err := s.scopedClient(ctx, actor, id)
	if err != nil {
		return dto.ClientDetailResponse{}, err
	}

	tasks, err := s.tasks.ListByClient(ctx, client.ID)
	if err != nil {
		return dto.ClientDetailResponse{}, err
	}

	return dto.NewClientDetailResponse(client, tasks), nil
}

func (s *clientService) ListTasks(ctx context.Context, actor Actor, clientID uint) ([]dto.TaskResponse, error) {
	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListByClient(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewTaskResponseSlice(tasks), nil
}

func (s *clientService) ReassignServiceCenter(ctx context.Context, actor Actor, clientID uint, payload dto.ReassignServiceCenterRequest) (dto.ClientResponse, error) {
	if actor.NormalizedRole() != models.RoleAdmin {
		return dto.ClientResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClientResponse{}, err
	}

	target, err := s.centers.GetByID(ctx, payload.ServiceCenterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClientResponse{}, ErrServiceCenterNotFound
		}
		return dto.ClientResponse{}, err
	}

	release, err := s.locker.Lock(ctx, clientID)
	if err != nil {
		return dto.ClientResponse{}, err
	}
	defer release()

	var previous, updated models.Client
	err = s.onboarding.WithinClient(ctx, clientID, func(unit repository.OnboardingUnit) error {
		previous = unit.Client()
		if previous.ServiceCenterID == target.ID {
			return ErrSameServiceCenter
		}

		if err := unit.UpdateClient(map[string]interface{}{"service_center_id": target.ID}); err != nil {
			return err
		}
		updated = unit.Client()

		entry, err := buildActivityLog(ActivityEntry{
			Actor:      actor,
			ClientID:   uintPtr(updated.ID),
			Action:     onboarding.ActionServiceCenterChanged,
			EntityType: "client",
			EntityID:   uintPtr(updated.ID),
			Details: fmt.Sprintf("%s: %s moved from %s to %s",
				onboarding.ActionLabel(onboarding.ActionServiceCenterChanged), updated.LegalName, previous.ServiceCenter.Name, target.Name),
			Metadata: map[string]interface{}{
				"from_service_center_id": previous.ServiceCenterID,
				"to_service_center_id":   target.ID,
			},
		}, s.sanitizer)
		if err != nil {
			return err
		}
		return unit.AppendActivity(&entry)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClientResponse{}, ErrClientNotFound
		}
		return dto.ClientResponse{}, err
	}

	s.notify(ctx, ServiceCenterRecipient(target.ID), NotificationClientAssigned,
		fmt.Sprintf("Client %s has been assigned to %s", updated.LegalName, target.Name))
	s.invalidate(ctx)

	s.logger.Info().
		Uint("client_id", updated.ID).
		Uint("from", previous.ServiceCenterID).
		Uint("to", target.ID).
		Msg("client reassigned")

	return dto.NewClientResponse(updated), nil
}

func (s *clientService) UpdateProfile(ctx context.Context, actor Actor, clientID uint, payload dto.ClientUpdateRequest) (dto.ClientDetailResponse, error) {
	role := actor.NormalizedRole()
	switch role {
	case models.RoleAdmin:
	case models.RoleClient:
		if actor.ClientID == nil || *actor.ClientID != clientID {
			return dto.ClientDetailResponse{}, ErrClientNotFound
		}
		if payload.LegalName != nil || payload.Notes != nil {
			return dto.ClientDetailResponse{}, ErrForbidden
		}
	default:
		return dto.ClientDetailResponse{}, ErrForbidden
	}

	normalizeClientUpdate(&payload)
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClientDetailResponse{}, err
	}
	updates := clientUpdateColumns(payload)

	release, err := s.locker.Lock(ctx, clientID)
	if err != nil {
		return dto.ClientDetailResponse{}, err
	}
	defer release()

	var (
		client  models.Client
		tasks   []models.OnboardingTask
		changed []string
	)
	err = s.onboarding.WithinClient(ctx, clientID, func(unit repository.OnboardingUnit) error {
		client = unit.Client()
		tasks = unit.Tasks()
		if !actor.CanAccessClient(client) {
			return ErrClientNotFound
		}

		current := clientProfileColumns(client)
		diff := map[string]interface{}{}
		for column, value := range updates {
			if current[column] != value {
				diff[column] = value
				changed = append(changed, column)
			}
		}
		if len(diff) == 0 {
			return nil
		}
		sort.Strings(changed)

		if err := unit.UpdateClient(diff); err != nil {
			return err
		}
		client = unit.Client()

		entry, err := buildActivityLog(ActivityEntry{
			Actor:      actor,
			ClientID:   uintPtr(client.ID),
			Action:     onboarding.ActionClientUpdated,
			EntityType: "client",
			EntityID:   uintPtr(client.ID),
			Details: fmt.Sprintf("%s: %s (%s)",
				onboarding.ActionLabel(onboarding.ActionClientUpdated), client.LegalName, strings.Join(changed, ", ")),
			Metadata: map[string]interface{}{"fields": changed},
		}, s.sanitizer)
		if err != nil {
			return err
		}
		return unit.AppendActivity(&entry)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClientDetailResponse{}, ErrClientNotFound
		}
		return dto.ClientDetailResponse{}, err
	}

	if len(changed) > 0 {
		s.invalidate(ctx)
		s.logger.Info().
			Uint("client_id", client.ID).
			Strs("fields", changed).
			Str("role", role).
			Msg("client profile updated")
	}

	return dto.NewClientDetailResponse(client, tasks), nil
}

func (s *clientService) scopedClient(ctx context.Context, actor Actor, id uint) (models.Client, error) {
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

func (s *clientService) record(ctx context.Context, entry ActivityEntry) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to record activity")
	}
}

func (s *clientService) notify(ctx context.Context, recipient, kind, message string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{Recipient: recipient, Type: kind, Message: message}); err != nil {
		s.logger.Warn().Err(err).Str("recipient", recipient).Msg("failed to dispatch notification")
	}
}

func (s *clientService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func normalizeClientUpdate(payload *dto.ClientUpdateRequest) {
	trim := func(value *string) {
		if value != nil {
			*value = strings.TrimSpace(*value)
		}
	}
	lower := func(value *string) {
		if value != nil {
			*value = strings.ToLower(strings.TrimSpace(*value))
		}
	}

	trim(payload.LegalName)
	trim(payload.ContactName)
	trim(payload.ContactTitle)
	trim(payload.ContactPhone)
	lower(payload.ContactEmail)
	trim(payload.MailingAddress)
	trim(payload.PhysicalAddress)
	trim(payload.BusinessPhone)
	lower(payload.BusinessEmail)
	trim(payload.Website)
	trim(payload.FederalEIN)
	trim(payload.StateTaxID)
	trim(payload.EntityType)
	trim(payload.StateOfIncorporation)
	trim(payload.FiscalYearEnd)
	trim(payload.AccountingSoftware)
	trim(payload.Notes)
}

// clientUpdateColumns maps the set fields of a profile edit to client columns.
func clientUpdateColumns(payload dto.ClientUpdateRequest) map[string]interface{} {
	updates := map[string]interface{}{}
	set := func(column string, value *string) {
		if value != nil {
			updates[column] = *value
		}
	}

	set("legal_name", payload.LegalName)
	set("contact_name", payload.ContactName)
	set("contact_title", payload.ContactTitle)
	set("contact_phone", payload.ContactPhone)
	set("contact_email", payload.ContactEmail)
	set("mailing_address", payload.MailingAddress)
	set("physical_address", payload.PhysicalAddress)
	set("business_phone", payload.BusinessPhone)
	set("business_email", payload.BusinessEmail)
	set("website", payload.Website)
	set("federal_ein", payload.FederalEIN)
	set("state_tax_id", payload.StateTaxID)
	set("entity_type", payload.EntityType)
	set("state_of_incorporation", payload.StateOfIncorporation)
	set("fiscal_year_end", payload.FiscalYearEnd)
	set("accounting_software", payload.AccountingSoftware)
	set("notes", payload.Notes)
	if payload.EmployeeCount != nil {
		updates["employee_count"] = *payload.EmployeeCount
	}
	return updates
}

func clientProfileColumns(client models.Client) map[string]interface{} {
	return map[string]interface{}{
		"legal_name":             client.LegalName,
		"contact_name":           client.ContactName,
		"contact_title":          client.ContactTitle,
		"contact_phone":          client.ContactPhone,
		"contact_email":          client.ContactEmail,
		"mailing_address":        client.MailingAddress,
		"physical_address":       client.PhysicalAddress,
		"business_phone":         client.BusinessPhone,
		"business_email":         client.BusinessEmail,
		"website":                client.Website,
		"federal_ein":            client.FederalEIN,
		"state_tax_id":           client.StateTaxID,
		"entity_type":            client.EntityType,
		"state_of_incorporation": client.StateOfIncorporation,
		"fiscal_year_end":        client.FiscalYearEnd,
		"accounting_software":    client.AccountingSoftware,
		"employee_count":         client.EmployeeCount,
		"notes":                  client.Notes,
	}
}
