package service

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/onboarding-portal-api/internal/observability"
)

var (
	// ErrUploadMissing indicates the request carried no file.
	ErrUploadMissing = errors.New("file is required")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
)

// allowedDocumentTypes maps sniffed MIME types to the label stored on the document.
var allowedDocumentTypes = map[string]string{
	"application/pdf":              "application/pdf",
	"application/zip":              "application/zip",
	"application/x-zip-compressed": "application/zip",
	"text/csv":                     "text/csv",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel": "application/vnd.ms-excel",
}

type inspectedFile struct {
	Name     string
	Content  []byte
	MimeType string
	Checksum string
}

func (f inspectedFile) Size() int64 {
	return int64(len(f.Content))
}

type fileInspector struct {
	maxSize int64
}

func newFileInspector(maxSize int64) fileInspector {
	if maxSize <= 0 {
		maxSize = 25 << 20
	}
	return fileInspector{maxSize: maxSize}
}

// Inspect reads the upload, enforces the size limit, sniffs its type and rejects zip bombs.
func (i fileInspector) Inspect(file *multipart.FileHeader) (inspectedFile, error) {
	if file == nil {
		return inspectedFile{}, ErrUploadMissing
	}
	if file.Size > i.maxSize {
		observability.DocumentUploads().WithLabelValues("too_large").Inc()
		return inspectedFile{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return inspectedFile{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, i.maxSize+1)); err != nil {
		return inspectedFile{}, err
	}
	if int64(buf.Len()) > i.maxSize {
		observability.DocumentUploads().WithLabelValues("too_large").Inc()
		return inspectedFile{}, ErrUploadTooLarge
	}
	if buf.Len() == 0 {
		return inspectedFile{}, ErrUploadMissing
	}

	fileType, ok := classifyMime(mimetype.Detect(buf.Bytes()))
	if !ok {
		observability.DocumentUploads().WithLabelValues("type").Inc()
		return inspectedFile{}, ErrUploadTypeNotAllowed
	}

	if err := i.scan(buf.Bytes(), fileType); err != nil {
		observability.DocumentUploads().WithLabelValues("scan").Inc()
		return inspectedFile{}, err
	}

	checksum := sha256.Sum256(buf.Bytes())
	return inspectedFile{
		Name:     sanitizeFileName(file.Filename),
		Content:  buf.Bytes(),
		MimeType: fileType,
		Checksum: hex.EncodeToString(checksum[:]),
	}, nil
}

func (i fileInspector) scan(payload []byte, mime string) error {
	if mime != "application/zip" && !strings.Contains(mime, "openxmlformats") {
		return nil
	}
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}
	var totalUncompressed uint64
	for _, f := range reader.File {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > uint64(i.maxSize*20) {
			return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

func classifyMime(detected *mimetype.MIME) (string, bool) {
	for m := detected; m != nil; m = m.Parent() {
		lower := strings.ToLower(m.String())
		if base, _, found := strings.Cut(lower, ";"); found {
			lower = strings.TrimSpace(base)
		}
		if strings.HasPrefix(lower, "image/") {
			return lower, true
		}
		if label, ok := allowedDocumentTypes[lower]; ok {
			return label, true
		}
	}
	return "", false
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("document-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}
