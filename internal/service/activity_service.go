package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/noah-isme/onboarding-portal-api/internal/dto"
	"github.com/noah-isme/onboarding-portal-api/internal/models"
	"github.com/noah-isme/onboarding-portal-api/internal/onboarding"
	"github.com/noah-isme/onboarding-portal-api/internal/repository"
)

const (
	activityDefaultPageSize = 10
	activityMaxPageSize     = 200

	// ExportFormatCSV and ExportFormatXLSX are the supported activity export formats.
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	Actor      Actor
	ClientID   *uint
	Action     string
	EntityType string
	EntityID   *uint
	Details    string
	Metadata   map[string]interface{}
}

// ActivityExport is a rendered activity log download.
type ActivityExport struct {
	FileName    string
	ContentType string
	Body        []byte
}

// ActivityRecorder defines behaviour for recording activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
	Export(ctx context.Context, req dto.ActivityListRequest, format string) (ActivityExport, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, validator *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "activity_service").Logger(),
		now:       time.Now,
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	model, err := buildActivityLog(entry, s.sanitizer)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", model.Action).Msg("failed to persist activity log")
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(model, onboarding.ActionLabel(model.Action)), nil
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityListResponse{}, err
	}

	req.PageSize = clampPageSize(req.PageSize, activityDefaultPageSize, activityMaxPageSize)
	filter, err := activityFilter(req)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}
	filter.Page = req.Page
	filter.PageSize = req.PageSize

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry, onboarding.ActionLabel(entry.Action)))
	}

	return dto.ActivityListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *activityService) Export(ctx context.Context, req dto.ActivityListRequest, format string) (ActivityExport, error) {
	if err := s.validator.Struct(req); err != nil {
		return ActivityExport{}, err
	}

	filter, err := activityFilter(req)
	if err != nil {
		return ActivityExport{}, err
	}

	entries, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return ActivityExport{}, err
	}

	stamp := s.now().UTC().Format("20060102-150405")
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", ExportFormatCSV:
		body, err := renderActivityCSV(entries)
		if err != nil {
			return ActivityExport{}, err
		}
		return ActivityExport{FileName: "activity-log-" + stamp + ".csv", ContentType: "text/csv", Body: body}, nil
	case ExportFormatXLSX:
		body, err := renderActivityXLSX(entries)
		if err != nil {
			return ActivityExport{}, err
		}
		return ActivityExport{
			FileName:    "activity-log-" + stamp + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Body:        body,
		}, nil
	default:
		return ActivityExport{}, fmt.Errorf("%w: %s", ErrUnsupportedExportFormat, format)
	}
}

func activityFilter(req dto.ActivityListRequest) (repository.ActivityLogFilter, error) {
	filter := repository.ActivityLogFilter{
		Search:    strings.TrimSpace(req.Search),
		Action:    strings.ToLower(strings.TrimSpace(req.Action)),
		ActorRole: strings.ToLower(strings.TrimSpace(req.ActorRole)),
	}
	if req.ClientID > 0 {
		filter.ClientID = uintPtr(req.ClientID)
	}
	if day := strings.TrimSpace(req.Date); day != "" {
		from, err := time.ParseInLocation("2006-01-02", day, time.UTC)
		if err != nil {
			return repository.ActivityLogFilter{}, fmt.Errorf("invalid date %q: %w", day, err)
		}
		to := from.Add(24 * time.Hour)
		filter.From = &from
		filter.To = &to
	}
	return filter, nil
}

func buildActivityLog(entry ActivityEntry, sanitizer *bluemonday.Policy) (models.ActivityLog, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return models.ActivityLog{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return models.ActivityLog{}, fmt.Errorf("entity type is required")
	}

	return models.ActivityLog{
		ClientID:   entry.ClientID,
		ActorID:    entry.Actor.ID,
		ActorName:  entry.Actor.DisplayName(),
		ActorRole:  entry.Actor.NormalizedRole(),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Details:    plainText(sanitizer, entry.Details),
		Metadata:   sanitizeMetadata(entry.Metadata),
	}, nil
}

// plainText strips markup and returns unescaped text for storage as plain text.
func plainText(sanitizer *bluemonday.Policy, input string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(input)))
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

var activityExportHeader = []string{"Timestamp", "User", "Role", "Action", "Details", "Client ID"}

func activityExportRow(entry models.ActivityLog) []string {
	clientID := ""
	if entry.ClientID != nil {
		clientID = strconv.FormatUint(uint64(*entry.ClientID), 10)
	}
	return []string{
		entry.CreatedAt.UTC().Format(time.RFC3339),
		entry.ActorName,
		entry.ActorRole,
		onboarding.ActionLabel(entry.Action),
		entry.Details,
		clientID,
	}
}

func renderActivityCSV(entries []models.ActivityLog) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(activityExportHeader); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := writer.Write(activityExportRow(entry)); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderActivityXLSX(entries []models.ActivityLog) ([]byte, error) {
	const sheet = "Activity Log"

	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	writeRow := func(row int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for i, value := range values {
			cells[i] = value
		}
		return file.SetSheetRow(sheet, cell, &cells)
	}

	if err := writeRow(1, activityExportHeader); err != nil {
		return nil, err
	}
	for i, entry := range entries {
		if err := writeRow(i+2, activityExportRow(entry)); err != nil {
			return nil, err
		}
	}

	if err := file.SetColWidth(sheet, "A", "A", 24); err != nil {
		return nil, err
	}
	if err := file.SetColWidth(sheet, "E", "E", 60); err != nil {
		return nil, err
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
