package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "marketplace/internal/errors"
)

// DefaultMaxBytes is the largest accepted photo.
const DefaultMaxBytes int64 = 3 * 1024 * 1024

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Upload is a photo received from a form, held in memory.
type Upload struct {
	Field    string
	Filename string
	Data     []byte
}

// Size returns the payload length.
func (u *Upload) Size() int64 {
	return int64(len(u.Data))
}

// FromFileHeader reads a multipart file, refusing anything larger than max.
func FromFileHeader(field string, fh *multipart.FileHeader, max int64) (*Upload, error) {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	if fh.Size > max {
		return nil, apperrors.ErrInvalidUpload
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > max {
		return nil, apperrors.ErrInvalidUpload
	}
	return &Upload{Field: field, Filename: fh.Filename, Data: data}, nil
}

// ValidateImage accepts jpeg/jpg/png files up to max bytes. Both the extension and
// the sniffed content type must match. It returns the detected content type.
func ValidateImage(u *Upload, max int64) (string, error) {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	if u == nil || len(u.Data) == 0 || u.Size() > max {
		return "", apperrors.ErrInvalidUpload
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(u.Filename))] {
		return "", apperrors.ErrInvalidUpload
	}
	mt := mimetype.Detect(u.Data)
	if !allowedTypes[mt.String()] {
		return "", apperrors.ErrInvalidUpload
	}
	return mt.String(), nil
}
