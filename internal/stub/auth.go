package stub

import (
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

const minPasswordLen = 8

// Register создаёт пользователя с ролью USER и выдаёт пару.
func (s *Service) Register(in models.RegisterRequest) (models.CredentialPair, error) {
	const op = "stub.auth.Register"

	u, err := s.createUser(in.Email, in.Password, in.DisplayName, []string{models.RoleUser})
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.issuePair(u.ID, u.Email)
}

// Login проверяет email/пароль и выдаёт пару.
func (s *Service) Login(in models.LoginRequest) (models.CredentialPair, error) {
	const op = "stub.auth.Login"

	email, err := validateEmail(in.Email)
	if err != nil || in.Password == "" {
		return models.CredentialPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	s.mu.Lock()
	id, ok := s.byEmail[email]
	var hash string
	if ok {
		hash = s.users[id].passwordHash
	}
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.Password)) != nil {
		return models.CredentialPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return s.issuePair(id, email)
}

// Refresh обменивает refresh-токен на новую пару. Предъявленный токен
// удаляется до выпуска новой пары, повторное предъявление даёт ErrInvalidToken.
func (s *Service) Refresh(refreshToken string) (models.CredentialPair, error) {
	const op = "stub.auth.Refresh"

	if refreshToken == "" {
		return models.CredentialPair{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	hash := hashRefresh(refreshToken)

	s.mu.Lock()
	rec, ok := s.refresh[hash]
	delete(s.refresh, hash)
	now := s.now()
	var email string
	if ok {
		if u, found := s.users[rec.userID]; found {
			email = u.Email
		} else {
			ok = false
		}
	}
	s.mu.Unlock()

	if !ok {
		return models.CredentialPair{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if now.After(rec.expiresAt) {
		return models.CredentialPair{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	return s.issuePair(rec.userID, email)
}

// Authenticate проверяет access-токен и возвращает id пользователя.
func (s *Service) Authenticate(accessToken string) (int64, error) {
	const op = "stub.auth.Authenticate"

	uid, err := s.validateAccessToken(accessToken)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	_, ok := s.users[uid]
	s.mu.Unlock()

	if !ok {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, nil
}

// Me - текущая личность пользователя uid.
func (s *Service) Me(uid int64) (*models.Identity, error) {
	const op = "stub.auth.Me"

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[uid]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	id := u.Identity
	id.Roles = append([]string(nil), u.Roles...)
	return &id, nil
}

// RevokeAll удаляет все refresh-токены пользователя: следующее обновление
// завершится ошибкой.
func (s *Service) RevokeAll(uid int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for h, rec := range s.refresh {
		if rec.userID == uid {
			delete(s.refresh, h)
		}
	}
}

func (s *Service) issuePair(uid int64, email string) (models.CredentialPair, error) {
	const op = "stub.auth.issuePair"

	now := s.clock()

	access, err := s.generateAccessToken(uid, email, now)
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%s: %w", op, err)
	}

	plain := randomString(32)

	s.mu.Lock()
	s.refresh[hashRefresh(plain)] = refreshRecord{userID: uid, expiresAt: now.Add(s.cfg.RefreshTTL)}
	s.mu.Unlock()

	return models.CredentialPair{
		TokenType:        models.DefaultTokenType,
		AccessToken:      access,
		AccessExpiresIn:  int64(s.cfg.AccessTTL.Seconds()),
		RefreshToken:     plain,
		RefreshExpiresIn: int64(s.cfg.RefreshTTL.Seconds()),
	}, nil
}

func (s *Service) createUser(email, password, displayName string, roles []string) (*models.Identity, error) {
	const op = "stub.auth.createUser"

	email, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len([]rune(password)) < minPasswordLen {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}

	s.seq++
	u := &user{
		Identity: models.Identity{
			ID:          s.seq,
			Email:       email,
			DisplayName: strings.TrimSpace(displayName),
			Roles:       append([]string(nil), roles...),
		},
		passwordHash: string(hash),
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID

	id := u.Identity
	return &id, nil
}

// validateEmail обрезает пробелы, проверяет формат и приводит к нижнему регистру.
func validateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", ErrInvalidArgument
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidArgument
	}

	return strings.ToLower(email), nil
}
