package service

import (
	"fmt"
	"mime/multipart"

	"credtrack/internal/common"
)

const (
	maxAvatarBytes   = 2 << 20 // 2MB
	maxDocumentBytes = 5 << 20 // 5MB
)

var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var documentContentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

func validateUpload(field string, fh *multipart.FileHeader, maxBytes int64, allowed map[string]bool) error {
	if fh.Size > maxBytes {
		return common.NewValidationError(field,
			fmt.Sprintf("The %s may not be greater than %d kilobytes.", field, maxBytes/1024))
	}
	if !allowed[fh.Header.Get("Content-Type")] {
		return common.NewValidationError(field, "The "+field+" file type is not allowed.")
	}
	return nil
}
