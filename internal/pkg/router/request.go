package router

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

// ErrFileMissing is returned by UploadedFile when none of the names carries a file.
var ErrFileMissing = errors.New("router: multipart file missing")

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	// Request is the underlying http.Request.
	*http.Request
}

// DecodeBody decodes the JSON body into dst. Unknown fields and trailing
// data are rejected.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// ParseMultipart reads a multipart/form-data body of at most maxBytes.
// Files larger than maxMemory spill to temporary files that are removed
// when the request ends.
func (r *Request) ParseMultipart(maxBytes, maxMemory int64) error {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		return goerror.NewInvalidFormat("Invalid request content-type")
	}

	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return goerror.NewInvalidFormat("Request body too large")
		}
		return goerror.NewInvalidFormat()
	}

	return nil
}

// FormString returns the first non-empty trimmed value among names. Field
// aliases (for example "date_of_birth" and "dateOfBirth") are passed in
// order of preference.
func (r *Request) FormString(names ...string) string {
	if r.MultipartForm == nil {
		return ""
	}
	for _, name := range names {
		for _, v := range r.MultipartForm.Value[name] {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// UploadedFile returns the first uploaded file among names.
func (r *Request) UploadedFile(names ...string) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, ErrFileMissing
	}
	for _, name := range names {
		if files := r.MultipartForm.File[name]; len(files) > 0 {
			return files[0], nil
		}
	}
	return nil, ErrFileMissing
}
