// api - доменные REST-модули маркетплейса. Все вызовы идут через обогащённый
// Doer сессии: Authorization и обновление пары делает пайплайн, модули
// только формируют запросы и разбирают ответы.
package api

import (
	"errors"
	"net/url"
	"strings"

	"github.com/pribylovaa/go-waste-client/internal/clients/rest"
)

// ErrInvalidArgument - пустой идентификатор или обязательное поле.
var ErrInvalidArgument = errors.New("invalid argument")

type Client struct {
	rest *rest.Client
}

func New(rc *rest.Client) *Client {
	return &Client{rest: rc}
}

// items - конверт списочных ответов.
type items[T any] struct {
	Items []T `json:"items"`
}

// pathID собирает путь с экранированным идентификатором: /base/{id}/suffix...
func pathID(base, id string, suffix ...string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidArgument
	}

	p := base + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}

	return p, nil
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}

	return path + "?" + q.Encode()
}
