// redact маскирует чувствительные значения перед записью в лог.
package redact

import "strings"

// Email оставляет два первых символа локальной части и домен.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token оставляет последние 4 символа, чтобы в логах можно было отличить
// один токен от другого, не раскрывая его. Короткие токены скрываются целиком.
func Token(s string) string {
	if s == "" {
		return ""
	}

	if len(s) <= 8 {
		return "[REDACTED_TOKEN]"
	}

	return "***" + s[len(s)-4:]
}

// Authorization маскирует значение заголовка Authorization, сохраняя схему.
func Authorization(v string) string {
	scheme, cred, ok := strings.Cut(v, " ")
	if !ok {
		return Token(v)
	}

	return scheme + " " + Token(cred)
}
