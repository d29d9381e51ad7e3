// Пакет errors — конструкторы стандартных ошибок HTTP API хранилища.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок API.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeUserDisabled       = "USER_DISABLED"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeMultipleFilesMatch = "MULTIPLE_FILES_MATCH"
	CodeIllegalOperation   = "ILLEGAL_OPERATION"
	CodePartialContent     = "PARTIAL_CONTENT"
	CodeAlreadyPublic      = "ALREADY_PUBLIC"
	CodeNotPublic          = "NOT_PUBLIC"
	CodeUnknownIO          = "UNKNOWN_IO"
	CodeInternalError      = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// BadRequest — 400 некорректные входные данные.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeBadRequest, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 операция запрещена.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// UserDisabled — 401 учётная запись заблокирована.
func UserDisabled(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUserDisabled, message)
}

// AlreadyExists — 422 ресурс с таким именем уже существует.
func AlreadyExists(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnprocessableEntity, CodeAlreadyExists, message)
}

// MultipleFilesMatch — 422 неоднозначный выбор файла по имени.
func MultipleFilesMatch(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnprocessableEntity, CodeMultipleFilesMatch, message)
}

// IllegalOperation — 422 операция противоречива или запрещена.
func IllegalOperation(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnprocessableEntity, CodeIllegalOperation, message)
}

// PartialContent — 400 поток не прошёл сверку trailer-контрольной суммы.
func PartialContent(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodePartialContent, message)
}

// AlreadyPublic — 422 файл уже опубликован.
func AlreadyPublic(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnprocessableEntity, CodeAlreadyPublic, message)
}

// NotPublic — 422 файл не публиковался.
func NotPublic(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnprocessableEntity, CodeNotPublic, message)
}

// UnknownIO — 500 ошибка ввода-вывода хранилища.
func UnknownIO(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeUnknownIO, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
