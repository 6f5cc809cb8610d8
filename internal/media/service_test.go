package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUploadVisitProofStoresImage(t *testing.T) {
	uploader := &stubUploader{url: "https://cdn.example.com/object"}
	svc := mustService(t, uploader, 1024)
	visitID := uuid.New()

	stored, err := svc.UploadVisitProof(context.Background(), visitID, UploadInput{
		MimeType: "image/png",
		Body:     bytes.NewReader(pngHeader),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if stored.URL != uploader.url {
		t.Fatalf("expected url %s, got %s", uploader.url, stored.URL)
	}
	prefix := "visits/" + visitID.String() + "/"
	if !strings.HasPrefix(stored.ObjectKey, prefix) || !strings.HasSuffix(stored.ObjectKey, ".png") {
		t.Fatalf("unexpected object key %s", stored.ObjectKey)
	}
	if uploader.object != stored.ObjectKey || uploader.contentType != "image/png" {
		t.Fatalf("uploader received %s %s", uploader.object, uploader.contentType)
	}
	if !bytes.Equal(uploader.body, pngHeader) {
		t.Fatalf("uploader received wrong body")
	}
	if stored.SizeBytes != int64(len(pngHeader)) {
		t.Fatalf("expected size %d, got %d", len(pngHeader), stored.SizeBytes)
	}
}

func TestUploadVisitProofRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		input UploadInput
		max   int64
	}{
		{name: "pdf", input: UploadInput{MimeType: "application/pdf", Body: strings.NewReader("%PDF-1.4")}, max: 1024},
		{name: "missing body", input: UploadInput{MimeType: "image/png"}, max: 1024},
		{name: "empty", input: UploadInput{MimeType: "image/png", Body: bytes.NewReader(nil)}, max: 1024},
		{name: "too large", input: UploadInput{MimeType: "image/png", Body: bytes.NewReader(pngHeader)}, max: 4},
		{name: "mismatched content", input: UploadInput{MimeType: "image/jpeg", Body: bytes.NewReader(pngHeader)}, max: 1024},
		{name: "bad mime", input: UploadInput{MimeType: ";;", Body: bytes.NewReader(pngHeader)}, max: 1024},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uploader := &stubUploader{url: "u"}
			svc := mustService(t, uploader, tc.max)
			_, err := svc.UploadVisitProof(context.Background(), uuid.New(), tc.input)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if uploader.calls != 0 {
				t.Fatalf("uploader must not be called")
			}
		})
	}
}

func TestUploadVisitProofStorageFailure(t *testing.T) {
	svc := mustService(t, &stubUploader{err: errors.New("gcs down")}, 1024)
	_, err := svc.UploadVisitProof(context.Background(), uuid.New(), UploadInput{
		MimeType: "image/png",
		Body:     bytes.NewReader(pngHeader),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func mustService(t *testing.T, uploader Uploader, max int64) Service {
	t.Helper()
	svc, err := NewService(uploader, max)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type stubUploader struct {
	url         string
	err         error
	calls       int
	object      string
	contentType string
	body        []byte
}

func (s *stubUploader) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	s.object = object
	s.contentType = contentType
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.body = data
	return s.url, nil
}
