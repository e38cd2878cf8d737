// Package localfs stores uploaded documents on the local filesystem. It backs development
// setups and tests where Cloudinary credentials are absent.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store writes files below a root directory and returns URLs under a public prefix.
type Store struct {
	root       string
	publicBase string
	logger     zerolog.Logger
}

// New creates the root directory when missing.
func New(root, publicBase string, logger zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local storage path must be provided")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to prepare local storage: %w", err)
	}

	return &Store{
		root:       root,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     logger.With().Str("component", "localfs").Logger(),
	}, nil
}

// Root returns the directory files are written to.
func (s *Store) Root() string {
	return s.root
}

// Upload copies reader into root/folder under a collision-free name.
func (s *Store) Upload(ctx context.Context, folder, name string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cleanFolder := strings.Trim(path.Clean("/"+filepath.ToSlash(folder)), "/")
	fileName := uuid.NewString() + "-" + filepath.Base(name)

	dir := filepath.Join(s.root, filepath.FromSlash(cleanFolder))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	target := filepath.Join(dir, fileName)
	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	s.logger.Debug().Str("path", target).Msg("document stored")

	return path.Join(s.publicBase, cleanFolder, fileName), nil
}
