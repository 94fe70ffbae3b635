// File: /utils/validators.go
package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsAllowedImageType accepts the sniffed MIME types a session image may have.
func IsAllowedImageType(mimeType string) bool {
	_, ok := allowedImageTypes[mimeType]
	return ok
}

// ImageExtension returns the file extension for an allowed image type.
func ImageExtension(mimeType string) string {
	return allowedImageTypes[mimeType]
}
