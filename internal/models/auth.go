// Входные/выходные модели REST-контракта бэкенда.
package models

// Роли маркетплейса.
const (
	RoleUser            = "USER"
	RoleDriver          = "DRIVER"
	RoleOperationsAdmin = "OPERATIONS_ADMIN"
	RoleSystemAdmin     = "SYSTEM_ADMIN"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Identity - ответ GET /me.
type Identity struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName,omitempty"`
	Roles       []string `json:"roles"`
}

// HasRole проверяет наличие роли у пользователя.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}

	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}

	return false
}
