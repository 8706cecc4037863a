// interceptors предоставляет стадии клиентского HTTP-пайплайна.
//
// Пайплайн - это цепочка декораторов вокруг Doer: каждая стадия получает
// запрос, при необходимости обогащает его, вызывает следующую стадию и
// может обработать ответ. Стадии не знают о сети и тестируются отдельно.
//
// Типичный порядок (снаружи внутрь):
//
//	WithMetadata -> Logging -> Metrics -> Refresh -> Credentials -> WithTimeout -> transport
//
// Refresh стоит снаружи Credentials: повтор запроса после обновления пары
// снова проходит через Credentials и получает новый заголовок Authorization.
package interceptors

import "net/http"

// Doer выполняет HTTP-запрос. *http.Client удовлетворяет интерфейсу.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc - адаптер функции к Doer.
type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// Middleware - стадия пайплайна.
type Middleware func(next Doer) Doer

// Chain применяет стадии в порядке перечисления: первая - самая внешняя.
func Chain(base Doer, mws ...Middleware) Doer {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			base = mws[i](base)
		}
	}

	return base
}
