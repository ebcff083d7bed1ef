package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaiso/Rendezvous/internal/repo"
	"github.com/shaiso/Rendezvous/internal/telemetry"
)

// ErrorCode: машинный код ошибки в теле ответа.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnavailable   ErrorCode = "UNAVAILABLE"
)

var statusCodes = map[int]ErrorCode{
	http.StatusBadRequest:          ErrCodeBadRequest,
	http.StatusNotFound:            ErrCodeNotFound,
	http.StatusConflict:            ErrCodeConflict,
	http.StatusInternalServerError: ErrCodeInternalError,
	http.StatusServiceUnavailable:  ErrCodeUnavailable,
}

// codeFor: код ошибки для HTTP статуса.
func codeFor(status int) ErrorCode {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return ErrCodeInternalError
}

// DataResponse: {"data": ...}, для списков с "total".
type DataResponse struct {
	Data  any  `json:"data"`
	Total *int `json:"total,omitempty"`
}

// ErrorResponse: {"error": {"code": ..., "message": ...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respond отдаёт data с заданным статусом.
func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, DataResponse{Data: data})
}

// respondList отдаёт список и число элементов.
func respondList(w http.ResponseWriter, items any, n int) {
	writeJSON(w, http.StatusOK, DataResponse{Data: items, Total: &n})
}

// fail отдаёт ошибку; код выводится из статуса.
func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: codeFor(status), Message: message}})
}

// failInternal логирует err логгером запроса и скрывает детали от клиента.
func failInternal(w http.ResponseWriter, r *http.Request, err error) {
	telemetry.FromContext(r.Context()).Error("internal error", "error", err)
	fail(w, http.StatusInternalServerError, "internal server error")
}

// failStore переводит ошибку хранилища в ответ.
// Возвращает false, если err == nil и обработка продолжается.
func failStore(w http.ResponseWriter, r *http.Request, err error, notFound string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repo.ErrNotFound):
		fail(w, http.StatusNotFound, notFound)
	case errors.Is(err, repo.ErrAlreadyExists):
		fail(w, http.StatusConflict, err.Error())
	default:
		failInternal(w, r, err)
	}
	return true
}
