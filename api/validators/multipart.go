package validators

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

// multipartOverhead leaves room for boundaries and part headers.
const multipartOverhead = 64 << 10

// FormFile is a single uploaded file part.
type FormFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        multipart.File
}

// ReadFormFile extracts exactly one file from the named multipart field. The
// whole request body is capped at maxBytes plus framing overhead.
func ReadFormFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*FormFile, error) {
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "multipart/form-data body required")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload too large")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}

	headers := r.MultipartForm.File[field]
	switch len(headers) {
	case 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file field required").WithDetails(map[string]any{"field": field})
	case 1:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one file expected").WithDetails(map[string]any{"field": field, "count": len(headers)})
	}

	header := headers[0]
	file, err := header.Open()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open uploaded file")
	}
	return &FormFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, nil
}
