package handler

import (
	"mime/multipart"
	"net/http"
	"strings"
)

const maxMultipartMemory = 10 << 20 // 10MB

// isMultipart reports whether the request carries form data with possible
// file attachments instead of a JSON body.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formFile returns the named upload, or nil when the field is absent. Any
// other error is also treated as absent; size/type limits are enforced by
// the service layer.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if files := r.MultipartForm.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}
