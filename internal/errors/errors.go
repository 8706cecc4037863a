// errors стандартизирует ошибки обмена с бэкендом маркетплейса.
//
// Клиентская сторона получает из ответа с не-2xx статусом *APIError:
//   - Status - HTTP-статус ответа;
//   - Code - короткий стабильный код (из тела ответа или из таблицы по статусу);
//   - Message - безопасное человекочитаемое описание.
//
// Серверная сторона (stub-бэкенд) пишет тот же конверт через WriteError,
// поэтому формат один: {"error":{"code","message","request_id"}}.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// maxErrorBody ограничивает чтение тела ошибки, чтобы большой ответ не висел в памяти.
const maxErrorBody = 64 << 10

// APIError - ошибка бэкенда, привязанная к HTTP-статусу.
type APIError struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error %d %s: %s (request_id=%s)", e.Status, e.Code, e.Message, e.RequestID)
	}

	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// ErrorResponse - корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// New собирает APIError с кодом и сообщением из базовой таблицы.
func New(status int) *APIError {
	code, msg := baseFromStatus(status)
	return &APIError{Status: status, Code: code, Message: msg}
}

// FromResponse превращает ответ с не-2xx статусом в *APIError.
// Тело читается (не больше maxErrorBody) и закрывается.
//
// Поведение:
//   - тело в формате конверта - берём code/message/request_id оттуда,
//     пустые поля дополняем из таблицы по статусу;
//   - тело не JSON - код/сообщение из таблицы; сырой текст не пробрасываем
//     в Message, чтобы не тащить детали бэкенда наверх.
func FromResponse(resp *http.Response) *APIError {
	e := New(resp.StatusCode)
	e.RequestID = resp.Header.Get("X-Request-Id")

	if resp.Body == nil {
		return e
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return e
	}

	var env ErrorResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return e
	}

	if c := strings.TrimSpace(env.Error.Code); c != "" {
		e.Code = c
	}
	if m := strings.TrimSpace(env.Error.Message); m != "" {
		e.Message = m
	}
	if env.Error.RequestID != "" {
		e.RequestID = env.Error.RequestID
	}

	return e
}

// StatusOf возвращает HTTP-статус из цепочки ошибок или 0, если это не APIError.
func StatusOf(err error) int {
	var e *APIError
	if errors.As(err, &e) {
		return e.Status
	}

	return 0
}

// IsUnauthorized - ошибка пришла от бэкенда со статусом 401.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// WriteError - хелпер для HTTP-хендлеров stub-бэкенда.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, e *APIError) {
	if e == nil {
		e = New(http.StatusInternalServerError)
	}

	resp := ErrorResponse{Error: *e}
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	status := e.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromStatus - базовый маппинг HTTP-статус -> FE-код/сообщение.
//   - 400 -> invalid_argument
//   - 401 -> unauthenticated (невалидные/просроченные/отозванные токены, неверный пароль)
//   - 403 -> permission_denied (роль не позволяет)
//   - 404 -> not_found
//   - 409 -> already_exists
//   - 412 -> failed_precondition
//   - 429 -> resource_exhausted
//   - 499 -> canceled
//   - 501 -> unimplemented
//   - 503 -> unavailable
//   - 504 -> deadline_exceeded
//   - прочие 4xx -> invalid_argument, прочие 5xx -> internal
func baseFromStatus(status int) (string, string) {
	switch status {
	case http.StatusBadRequest:
		return "invalid_argument", "invalid argument"
	case http.StatusUnauthorized:
		return "unauthenticated", "unauthenticated"
	case http.StatusForbidden:
		return "permission_denied", "permission denied"
	case http.StatusNotFound:
		return "not_found", "not found"
	case http.StatusConflict:
		return "already_exists", "already exists"
	case http.StatusPreconditionFailed:
		return "failed_precondition", "failed precondition"
	case http.StatusTooManyRequests:
		return "resource_exhausted", "resource exhausted"
	case StatusClientClosedRequest:
		return "canceled", "canceled"
	case http.StatusNotImplemented:
		return "unimplemented", "unimplemented"
	case http.StatusServiceUnavailable:
		return "unavailable", "service unavailable"
	case http.StatusGatewayTimeout:
		return "deadline_exceeded", "deadline exceeded"
	}

	if status >= 400 && status < 500 {
		return "invalid_argument", "invalid argument"
	}

	return "internal", "internal error"
}
