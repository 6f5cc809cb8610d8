package media

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
}

// UploadInput is one proof image read from a multipart request.
type UploadInput struct {
	MimeType string
	Body     io.Reader
}

// StoredObject describes an uploaded image ready to be persisted.
type StoredObject struct {
	URL       string
	ObjectKey string
	MimeType  string
	SizeBytes int64
}

// Service validates proof images and pushes them to object storage.
type Service interface {
	UploadVisitProof(ctx context.Context, visitID uuid.UUID, input UploadInput) (*StoredObject, error)
}

type service struct {
	uploader Uploader
	maxBytes int64
}

// NewService constructs a media service bound to the storage adapter.
func NewService(uploader Uploader, maxBytes int64) (Service, error) {
	if uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{uploader: uploader, maxBytes: maxBytes}, nil
}

func (s *service) UploadVisitProof(ctx context.Context, visitID uuid.UUID, input UploadInput) (*StoredObject, error) {
	if visitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visit id required")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}

	declared, err := parseMimeType(input.MimeType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image content type")
	}
	ext, ok := extensionsByMime[declared]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image must be "+allowedMimeDescription())
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("image must be at most %d bytes", s.maxBytes))
	}
	if sniffed := sniffMimeType(data); sniffed != declared {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image content does not match its declared type")
	}

	key := ObjectKey(visitID, ext)
	url, err := s.uploader.Upload(ctx, key, declared, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upload image")
	}

	return &StoredObject{
		URL:       url,
		ObjectKey: key,
		MimeType:  declared,
		SizeBytes: int64(len(data)),
	}, nil
}

// ObjectKey builds visits/<visit>/<random>.<ext>.
func ObjectKey(visitID uuid.UUID, ext string) string {
	return fmt.Sprintf("visits/%s/%s.%s", visitID, uuid.NewString(), ext)
}
