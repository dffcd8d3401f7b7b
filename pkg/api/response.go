package api

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/dmitrymomot/styledoc/pkg/files"
	"github.com/dmitrymomot/styledoc/pkg/render"
	"github.com/dmitrymomot/styledoc/pkg/sanitizer"
)

// Response renders itself to the client.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Fields maps a request field to its violation, when known.
	Fields map[string]string `json:"fields,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
	err    error
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON wraps v in the envelope with status 200.
func JSON(v any) Response {
	return jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
}

// JSONError maps err to a status and an error envelope. Errors the client
// cannot act on become a generic 500 without their message.
func JSONError(err error) Response {
	status, detail := errorToDetail(err)
	return jsonResponse{status: status, body: JSONResponse{Error: detail}, err: err}
}

func errorToDetail(err error) (int, *ErrorDetail) {
	var (
		httpErr  HTTPError
		maxBytes *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, &ErrorDetail{Code: ErrRequestEntityTooLarge.Key, Message: "request body is too large"}
	case errors.Is(err, sanitizer.ErrContentTooLarge):
		return http.StatusRequestEntityTooLarge, &ErrorDetail{Code: "content_too_large", Message: err.Error()}
	case errors.Is(err, files.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, &ErrorDetail{Code: "file_too_large", Message: err.Error()}
	case errors.Is(err, files.ErrInvalidName):
		return http.StatusBadRequest, &ErrorDetail{Code: "invalid_filename", Message: err.Error()}
	case errors.Is(err, files.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, &ErrorDetail{Code: "unsupported_file_type", Message: err.Error()}
	case isFileContentError(err):
		return http.StatusUnprocessableEntity, &ErrorDetail{Code: "invalid_file", Message: err.Error()}
	case errors.Is(err, render.ErrInvalidStyle):
		return http.StatusUnprocessableEntity, &ErrorDetail{Code: "invalid_style", Message: err.Error(), Fields: fieldErrors(err)}
	case errors.As(err, &httpErr):
		message := err.Error()
		if message == httpErr.Key {
			message = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: message}
	default:
		return http.StatusInternalServerError, &ErrorDetail{
			Code:    ErrInternalServerError.Key,
			Message: http.StatusText(http.StatusInternalServerError),
		}
	}
}

func isFileContentError(err error) bool {
	for _, target := range []error{
		files.ErrEmptyFile, files.ErrEncoding, files.ErrExecutable, files.ErrImage, files.ErrImageTooLarge,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func fieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for name, ferr := range verrs {
		fields[name] = ferr.Error()
	}
	return fields
}

type documentResponse struct {
	result render.Result
}

// Document serves a rendered document as text/html with the security headers.
func Document(res render.Result) Response {
	return documentResponse{result: res}
}

func (d documentResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	h := w.Header()
	for _, sh := range render.SecurityHeaders() {
		h.Set(sh.Name, sh.Value)
	}
	h.Set("Content-Type", "text/html; charset=utf-8")
	if d.result.Cached {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte(d.result.HTML))
	return err
}

type noContent struct{}

// NoContent answers 204.
func NoContent() Response { return noContent{} }

func (noContent) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}
