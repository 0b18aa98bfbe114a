package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultMaxUploadBytes bounds a single screenshot upload
const DefaultMaxUploadBytes = 10 << 20

// UploadedImage is an accepted upload, ready to be stored as the pending image
type UploadedImage struct {
	DataURL    string `json:"data_url"`
	MIMEType   string `json:"mime_type"`
	Size       int    `json:"size"`
	ArchivedAs string `json:"archived_as,omitempty"`
}

// ImageIntake turns raw upload bytes into an embeddable image reference
type ImageIntake interface {
	Accept(data []byte) (*UploadedImage, error)
}

// ImageStorageService validates uploaded screenshots, converts them to data
// URLs and optionally keeps the originals on disk
type ImageStorageService struct {
	archiveDir string
	maxBytes   int
}

// NewImageStorageService creates an image storage service. An empty
// archiveDir disables archiving.
func NewImageStorageService(archiveDir string, maxBytes int) *ImageStorageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	if archiveDir != "" {
		// Log error but don't fail - will fail on actual writes
		if err := os.MkdirAll(archiveDir, 0755); err != nil {
			log.Printf("Warning: could not create upload archive directory: %v", err)
		}
	}

	return &ImageStorageService{
		archiveDir: archiveDir,
		maxBytes:   maxBytes,
	}
}

// Accept checks that data is a single image within the size limit and returns
// its data URL
func (s *ImageStorageService) Accept(data []byte) (*UploadedImage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(data), s.maxBytes)
	}

	mt := mimetype.Detect(data)
	mimeType, _, _ := strings.Cut(mt.String(), ";")
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrUnsupportedImage, mimeType)
	}
	if !mt.Is("image/svg+xml") {
		if err := checkRaster(data); err != nil {
			switch {
			case errors.Is(err, image.ErrFormat):
				return nil, fmt.Errorf("%w: cannot decode %s", ErrUnsupportedImage, mimeType)
			case errors.Is(err, ErrTooManyPixels):
				return nil, fmt.Errorf("%w: %v", ErrImageTooLarge, err)
			default:
				return nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
			}
		}
	}

	upload := &UploadedImage{
		DataURL:  "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
		Size:     len(data),
	}

	if s.archiveDir != "" {
		filename, err := s.saveImage(data, mt.Extension())
		if err != nil {
			// Archiving is optional, the upload still goes through
			log.Printf("Image storage: failed to archive upload: %v", err)
		} else {
			upload.ArchivedAs = filename
		}
	}

	return upload, nil
}

// saveImage writes image data to the archive directory and returns the filename
func (s *ImageStorageService) saveImage(data []byte, ext string) (string, error) {
	if ext == "" {
		ext = ".img"
	}
	filename := uuid.New().String() + ext
	filePath := filepath.Join(s.archiveDir, filename)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return filename, nil
}

// GetStorageDir returns the archive directory path, empty when archiving is off
func (s *ImageStorageService) GetStorageDir() string {
	return s.archiveDir
}
