package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrUnavailable is returned while the upload circuit is open.
var ErrUnavailable = errors.New("document storage temporarily unavailable")

const uploadTimeout = 60 * time.Second

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores client documents in Cloudinary, one folder per client.
type Service struct {
	client  *cloudinary.Cloudinary
	folder  string
	breaker *gobreaker.CircuitBreaker[string]
	logger  zerolog.Logger
}

// New validates the credentials and builds the uploader.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("initialise cloudinary: %w", err)
	}

	log := logger.With().Str("component", "cloudinary").Logger()
	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "cloudinary-upload",
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("document storage circuit changed state")
			},
		}),
		logger: log,
	}, nil
}

// Upload stores the document under <configured folder>/<folder> and returns its secure URL.
// Existing assets are never overwritten; every upload gets a fresh public id.
func (s *Service) Upload(ctx context.Context, folder, name string, reader io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:         targetFolder(s.folder, folder),
		PublicID:       buildPublicID(name),
		ResourceType:   "auto",
		UniqueFilename: api.Bool(false),
		Overwrite:      api.Bool(false),
		Tags:           []string{"onboarding-document"},
	}

	url, err := s.breaker.Execute(func() (string, error) {
		uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
		defer cancel()

		result, err := s.client.Upload.Upload(uploadCtx, reader, params)
		if err != nil {
			return "", fmt.Errorf("upload document: %w", err)
		}
		if result.Error.Message != "" {
			return "", fmt.Errorf("cloudinary rejected document: %s", result.Error.Message)
		}
		s.logger.Info().Str("public_id", result.PublicID).Str("folder", params.Folder).Int("bytes", result.Bytes).Msg("document stored")
		return result.SecureURL, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrUnavailable
	}
	return url, err
}

func targetFolder(base, folder string) string {
	return strings.Trim(path.Join(base, strings.Trim(folder, "/")), "/")
}

func buildPublicID(name string) string {
	base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "document"
	}

	return fmt.Sprintf("%s-%d", base, time.Now().UnixNano())
}
