package interceptors

import "context"

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxRetried
	ctxAttachment
)

// HeaderRequestID - заголовок корреляции запросов.
const HeaderRequestID = "X-Request-Id"

// WithRequestID кладёт request_id в контекст; WithMetadata использует его
// вместо генерации нового.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxRequestID, rid)
}

// RequestIDFrom достаёт request_id из контекста или "".
func RequestIDFrom(ctx context.Context) string {
	rid, _ := ctx.Value(ctxRequestID).(string)
	return rid
}

// markRetried помечает логический запрос как уже повторённый.
func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxRetried, true)
}

func isRetried(ctx context.Context) bool {
	v, _ := ctx.Value(ctxRetried).(bool)
	return v
}

// attachment - какой access-токен Credentials фактически подставил в запрос.
// Создаётся Refresh перед вызовом внутренних стадий и читается после ответа.
type attachment struct {
	accessToken string
}

func withAttachment(ctx context.Context, a *attachment) context.Context {
	return context.WithValue(ctx, ctxAttachment, a)
}

func attachmentFrom(ctx context.Context) *attachment {
	a, _ := ctx.Value(ctxAttachment).(*attachment)
	return a
}
