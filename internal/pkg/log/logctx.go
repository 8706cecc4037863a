// log хранит request-scoped логгер в контексте. Используется стадиями
// HTTP-пайплайна клиента и сессией: каждая стадия достаёт логгер через From
// и дописывает свои поля, не протаскивая *slog.Logger через сигнатуры.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// With обогащает логгер из контекста атрибутами и кладёт результат обратно.
// Возвращает и новый контекст, и сам логгер, чтобы не вызывать From повторно.
func With(ctx context.Context, attrs ...slog.Attr) (context.Context, *slog.Logger) {
	if len(attrs) == 0 {
		return ctx, From(ctx)
	}

	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}

	l := From(ctx).With(args...)
	return Into(ctx, l), l
}
