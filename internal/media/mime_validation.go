package media

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// Extensions used for object keys, keyed by accepted mime type.
var extensionsByMime = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

func allowedMimeDescription() string {
	return "image/jpeg, image/png or image/webp"
}

func parseMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	if mediaType == "" {
		return "", fmt.Errorf("mime type missing")
	}
	return strings.ToLower(mediaType), nil
}

// sniffMimeType inspects the leading bytes. http.DetectContentType knows the
// three image signatures we accept.
func sniffMimeType(head []byte) string {
	detected, _, _ := mime.ParseMediaType(http.DetectContentType(head))
	return detected
}
