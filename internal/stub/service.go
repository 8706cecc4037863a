// stub - локальный бэкенд маркетплейса для разработки и e2e-тестов клиента.
//
// Состояние живёт в памяти процесса. Аутентификация повторяет контракт
// боевого бэкенда: access-токен - JWT HS256 с коротким TTL, refresh-токен -
// случайная строка, в памяти хранится только её sha256-хэш; при обновлении
// refresh-токен ротируется, старый становится недействительным.
package stub

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("state conflict")
)

// Config - параметры выпуска токенов.
type Config struct {
	JWTSecret  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// BcryptCost - 0 => bcrypt.DefaultCost.
	BcryptCost int
}

// SeedUser - пользователь, создаваемый при старте (например, администратор).
type SeedUser struct {
	Email       string
	Password    string
	DisplayName string
	Roles       []string
}

type user struct {
	models.Identity
	passwordHash string
}

type refreshRecord struct {
	userID    int64
	expiresAt time.Time
}

// Service - in-memory реализация бэкенда.
type Service struct {
	cfg Config
	// now - источник времени; в тестах подменяется через SetClock.
	now func() time.Time

	mu       sync.Mutex
	seq      int64
	users    map[int64]*user
	byEmail  map[string]int64
	refresh  map[string]refreshRecord
	requests []*models.WasteRequest
	payments map[int64][]*models.PaymentMethod
	roles    []*models.RoleApplication
	areas    map[string]*models.ServiceArea
	catalog  []models.Address
}

func New(cfg Config, seed ...SeedUser) (*Service, error) {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("stub: empty jwt secret")
	}

	s := &Service{
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		users:    make(map[int64]*user),
		byEmail:  make(map[string]int64),
		refresh:  make(map[string]refreshRecord),
		payments: make(map[int64][]*models.PaymentMethod),
		areas:    make(map[string]*models.ServiceArea),
		catalog:  defaultCatalog(),
	}

	for _, u := range seed {
		if _, err := s.createUser(u.Email, u.Password, u.DisplayName, u.Roles); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SetClock подменяет источник времени.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now
}

func (s *Service) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.now()
}

func defaultCatalog() []models.Address {
	return []models.Address{
		{ID: "addr-1", Line: "1 Harbour Street", City: "Springfield", PostalCode: "10001", Lat: 40.7128, Lng: -74.0060},
		{ID: "addr-2", Line: "12 Harbour Lane", City: "Springfield", PostalCode: "10002", Lat: 40.7138, Lng: -74.0071},
		{ID: "addr-3", Line: "7 Mill Road", City: "Shelbyville", PostalCode: "20001", Lat: 41.1000, Lng: -73.9000},
		{ID: "addr-4", Line: "44 Orchard Avenue", City: "Shelbyville", PostalCode: "20002", Lat: 41.1011, Lng: -73.9015},
		{ID: "addr-5", Line: "3 Station Square", City: "Capital City", PostalCode: "30001", Lat: 42.0000, Lng: -72.5000},
	}
}
