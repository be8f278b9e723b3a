package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/jimlawless/whereami"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, e.ErrImageTooLarge.Error()
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrMissingFile):
		return http.StatusBadRequest, e.ErrMissingFile.Error()
	case errors.Is(err, e.ErrUndecodableImage):
		return http.StatusBadRequest, e.ErrUndecodableImage.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusBadRequest, e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrServiceNotReady):
		return http.StatusServiceUnavailable, e.ErrServiceNotReady.Error()
	case errors.Is(err, e.ErrEncoderUnavailable):
		return http.StatusServiceUnavailable, e.ErrEncoderUnavailable.Error()
	case errors.Is(err, e.ErrNoGeneration):
		return http.StatusServiceUnavailable, e.ErrNoGeneration.Error()
	case errors.Is(err, e.ErrIndexInconsistent):
		return http.StatusInternalServerError, e.ErrIndexInconsistent.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ensureMultipartForm разбирает multipart-тело. Превышение MaxBytesReader: ErrImageTooLarge.
func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return e.Wrap(whereami.WhereAmI(), e.ErrImageTooLarge)
		}
		return e.Wrap(err.Error(), e.ErrExpectedMultipart)
	}
	return nil
}

// formFile возвращает первый файл поля field.
func formFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, e.Wrap(field, e.ErrMissingFile)
	}
	return r.MultipartForm.File[field][0], nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return nil, e.Wrap(fh.Filename, e.ErrImageTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, e.ErrInternalServerError
	}
	if len(data) == 0 {
		return nil, e.Wrap(fh.Filename, e.ErrMissingFile)
	}
	return data, nil
}
