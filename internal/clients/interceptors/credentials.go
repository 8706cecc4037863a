package interceptors

import (
	"net/http"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

// CredentialSource - синхронный источник текущей пары токенов.
// tokenstore.Store удовлетворяет интерфейсу.
type CredentialSource interface {
	Current() (models.CredentialPair, bool)
}

// Credentials подставляет Authorization: "<tokenType> <accessToken>" из текущей пары.
// Пары нет - запрос уходит без изменений. Стадия не блокируется, не инициирует
// обновление и не завершает запрос ошибкой.
func Credentials(src CredentialSource) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			pair, ok := src.Current()
			if !ok || pair.AccessToken == "" {
				return next.Do(req)
			}

			out := req.Clone(req.Context())
			out.Header.Set("Authorization", pair.AuthorizationValue())

			if a := attachmentFrom(req.Context()); a != nil {
				a.accessToken = pair.AccessToken
			}

			return next.Do(out)
		})
	}
}
