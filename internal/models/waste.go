package models

import "time"

// Статусы заявки на вывоз.
const (
	WasteRequestPending   = "PENDING"
	WasteRequestAccepted  = "ACCEPTED"
	WasteRequestCompleted = "COMPLETED"
	WasteRequestCanceled  = "CANCELED"
)

// WasteRequest - заявка пользователя на вывоз отходов.
type WasteRequest struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"userId"`
	DriverID     *int64    `json:"driverId,omitempty"`
	Category     string    `json:"category"`
	VolumeLiters int       `json:"volumeLiters"`
	Address      Address   `json:"address"`
	PickupAt     time.Time `json:"pickupAt"`
	Status       string    `json:"status"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateWasteRequest struct {
	Category     string    `json:"category"`
	VolumeLiters int       `json:"volumeLiters"`
	Address      Address   `json:"address"`
	PickupAt     time.Time `json:"pickupAt"`
	Note         string    `json:"note,omitempty"`
}

// WasteRequestFilter - параметры выборки списка заявок.
type WasteRequestFilter struct {
	Status string
	Limit  int
	Cursor string
}

type WasteRequestPage struct {
	Items      []WasteRequest `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// Address - адрес, как его возвращает поиск адресов.
type Address struct {
	ID         string  `json:"id,omitempty"`
	Line       string  `json:"line"`
	City       string  `json:"city"`
	PostalCode string  `json:"postalCode,omitempty"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// PaymentMethod - зарегистрированный способ оплаты (данные карты хранит провайдер).
type PaymentMethod struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Last4     string `json:"last4,omitempty"`
	Holder    string `json:"holder,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

type RegisterPaymentMethodRequest struct {
	Kind          string `json:"kind"`
	ProviderToken string `json:"providerToken"`
	Holder        string `json:"holder,omitempty"`
	MakeDefault   bool   `json:"makeDefault"`
}

// Статусы заявки на роль.
const (
	RoleApplicationPending  = "PENDING"
	RoleApplicationApproved = "APPROVED"
	RoleApplicationRejected = "REJECTED"
)

// RoleApplication - заявка на получение роли (например, DRIVER).
type RoleApplication struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"userId"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	Details     string    `json:"details,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type SubmitRoleApplicationRequest struct {
	Role    string `json:"role"`
	Details string `json:"details,omitempty"`
}

type ReviewRoleApplicationRequest struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment,omitempty"`
}

// ServiceArea - зона обслуживания, которой управляет операционный админ.
type ServiceArea struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	City    string   `json:"city"`
	Postals []string `json:"postalCodes"`
	Active  bool     `json:"active"`
}
