package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/models"
	"github.com/noah-isme/onboarding-portal-api/internal/onboarding"
	"github.com/noah-isme/onboarding-portal-api/internal/repository"
)

const adminDashboardCacheKey = "dashboard:admin:summary"

// DashboardService produces the admin and client dashboards.
type DashboardService interface {
	AdminSummary(ctx context.Context) (dto.AdminDashboardResponse, error)
	ClientDashboard(ctx context.Context, actor Actor) (dto.ClientDashboardResponse, error)
	Invalidate(ctx context.Context)
}

type dashboardService struct {
	repo     repository.DashboardRepository
	clients  repository.ClientRepository
	tasks    repository.TaskRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDashboardService builds the dashboard aggregator. cache may be nil.
func NewDashboardService(repo repository.DashboardRepository, clients repository.ClientRepository, tasks repository.TaskRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		repo:     repo,
		clients:  clients,
		tasks:    tasks,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
		now:      time.Now,
	}
}

func (s *dashboardService) AdminSummary(ctx context.Context) (dto.AdminDashboardResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, adminDashboardCacheKey).Result(); err == nil {
			var response dto.AdminDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return dto.AdminDashboardResponse{}, err
	}

	byStage := map[string]int64{
		string(models.StageDocumentCollection): 0,
		string(models.StageReview):             0,
		string(models.StageCompleted):          0,
	}
	for stage, total := range totals.ClientsByStage {
		byStage[stage] = total
	}

	response := dto.AdminDashboardResponse{
		TotalClients:      totals.TotalClients,
		ClientsByStage:    byStage,
		AwaitingReview:    totals.AwaitingReview,
		RejectedDocuments: totals.RejectedDocuments,
		ServiceCenters:    totals.ServiceCenters,
		AverageProgress:   math.Round(totals.AverageProgress*10) / 10,
		GeneratedAt:       s.now().UTC(),
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, adminDashboardCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) ClientDashboard(ctx context.Context, actor Actor) (dto.ClientDashboardResponse, error) {
	if actor.ClientID == nil {
		return dto.ClientDashboardResponse{}, ErrClientNotFound
	}

	client, err := s.clients.GetByID(ctx, *actor.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClientDashboardResponse{}, ErrClientNotFound
		}
		return dto.ClientDashboardResponse{}, err
	}
	if !actor.CanAccessClient(client) {
		return dto.ClientDashboardResponse{}, ErrClientNotFound
	}

	tasks, err := s.tasks.ListByClient(ctx, client.ID)
	if err != nil {
		return dto.ClientDashboardResponse{}, err
	}

	counts := make(map[string]int, len(models.OnboardingStatuses))
	for status, total := range onboarding.StatusCounts(tasks) {
		counts[string(status)] = total
	}

	return dto.ClientDashboardResponse{
		ClientID:           client.ID,
		LegalName:          client.LegalName,
		OnboardingProgress: client.OnboardingProgress,
		Stage:              string(client.Stage),
		StatusCounts:       counts,
		Tasks:              dto.NewTaskResponseSlice(tasks),
	}, nil
}

// Invalidate drops the cached admin summary.
func (s *dashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, adminDashboardCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}
