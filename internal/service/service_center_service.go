package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/models"
	"github.com/noah-isme/onboarding-portal-api/internal/onboarding"
	"github.com/noah-isme/onboarding-portal-api/internal/repository"
)

// ServiceCenterService manages service centers.
type ServiceCenterService interface {
	Create(ctx context.Context, actor Actor, payload dto.ServiceCenterCreateRequest) (dto.ServiceCenterResponse, error)
	List(ctx context.Context, search string) ([]dto.ServiceCenterResponse, error)
	Get(ctx context.Context, id uint) (dto.ServiceCenterResponse, error)
}

type serviceCenterService struct {
	repo      repository.ServiceCenterRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewServiceCenterService constructs the service center service.
func NewServiceCenterService(repo repository.ServiceCenterRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ServiceCenterService {
	return &serviceCenterService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "service_center_service").Logger(),
	}
}

func (s *serviceCenterService) Create(ctx context.Context, actor Actor, payload dto.ServiceCenterCreateRequest) (dto.ServiceCenterResponse, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	if err := s.validator.Struct(payload); err != nil {
		return dto.ServiceCenterResponse{}, err
	}

	if _, err := s.repo.FindByName(ctx, payload.Name); err == nil {
		return dto.ServiceCenterResponse{}, ErrServiceCenterExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ServiceCenterResponse{}, err
	}

	center := models.ServiceCenter{
		Name:     payload.Name,
		Location: strings.TrimSpace(payload.Location),
		Manager:  strings.TrimSpace(payload.Manager),
		Email:    strings.TrimSpace(payload.Email),
		Phone:    strings.TrimSpace(payload.Phone),
	}
	if err := s.repo.Create(ctx, &center); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ServiceCenterResponse{}, ErrServiceCenterExists
		}
		return dto.ServiceCenterResponse{}, err
	}

	if s.activity != nil {
		if _, err := s.activity.Record(ctx, ActivityEntry{
			Actor:      actor,
			Action:     onboarding.ActionServiceCenterCreated,
			EntityType: "service_center",
			EntityID:   uintPtr(center.ID),
			Details:    fmt.Sprintf("%s: %s", onboarding.ActionLabel(onboarding.ActionServiceCenterCreated), center.Name),
		}); err != nil {
			s.logger.Warn().Err(err).Uint("service_center_id", center.ID).Msg("failed to record service center creation")
		}
	}

	return dto.NewServiceCenterResponse(center, 0), nil
}

func (s *serviceCenterService) List(ctx context.Context, search string) ([]dto.ServiceCenterResponse, error) {
	centers, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ServiceCenterResponse, 0, len(centers))
	for _, center := range centers {
		result = append(result, dto.NewServiceCenterResponse(center.ServiceCenter, center.ClientsAssigned))
	}
	return result, nil
}

func (s *serviceCenterService) Get(ctx context.Context, id uint) (dto.ServiceCenterResponse, error) {
	center, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ServiceCenterResponse{}, ErrServiceCenterNotFound
		}
		return dto.ServiceCenterResponse{}, err
	}

	clients, err := s.repo.CountClients(ctx, id)
	if err != nil {
		return dto.ServiceCenterResponse{}, err
	}

	return dto.NewServiceCenterResponse(center, clients), nil
}
