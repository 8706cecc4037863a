package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/pribylovaa/go-waste-client/internal/errors"
	"github.com/pribylovaa/go-waste-client/internal/stub"
	"github.com/pribylovaa/go-waste-client/internal/stub/http/middleware"
)

// Handlers агрегирует зависимости (in-memory сервис бэкенда).
type Handlers struct {
	Service *stub.Service
}

func New(s *stub.Service) *Handlers {
	return &Handlers{Service: s}
}

// writeJSON - единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict - строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

// writeError переводит доменную ошибку сервиса в HTTP-статус:
//   - ErrInvalidArgument -> 400
//   - ErrInvalidCredentials, ErrInvalidToken, ErrTokenExpired -> 401
//   - ErrForbidden -> 403
//   - ErrNotFound -> 404
//   - ErrEmailTaken -> 409
//   - ErrConflict -> 412
//   - прочее -> 500
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, stub.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, stub.ErrInvalidCredentials),
		errors.Is(err, stub.ErrInvalidToken),
		errors.Is(err, stub.ErrTokenExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, stub.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, stub.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, stub.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, stub.ErrConflict):
		status = http.StatusPreconditionFailed
	}

	apierrors.WriteError(w, r, apierrors.New(status))
}

// invalidArgument - локальная ошибка разбора запроса.
func invalidArgument(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteError(w, r, apierrors.New(http.StatusBadRequest))
}

// userID - id из контекста; без него (роут не за AuthBearer) - 401.
func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.New(http.StatusUnauthorized))
	}

	return uid, ok
}
