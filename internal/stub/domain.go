package stub

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-waste-client/internal/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var wasteCategories = []string{"GENERAL", "RECYCLABLE", "ORGANIC", "BULKY", "HAZARDOUS"}

// userLocked - вызывается под s.mu.
func (s *Service) userLocked(uid int64) (*user, error) {
	u, ok := s.users[uid]
	if !ok {
		return nil, ErrInvalidToken
	}

	return u, nil
}

func isAdmin(u *user) bool {
	return u.HasRole(models.RoleOperationsAdmin) || u.HasRole(models.RoleSystemAdmin)
}

func cloneRequest(r *models.WasteRequest) models.WasteRequest {
	out := *r
	if r.DriverID != nil {
		d := *r.DriverID
		out.DriverID = &d
	}

	return out
}

// ListWasteRequests: пользователю - свои заявки, водителю - свободные и
// взятые им, администратору - все. Курсор - смещение в выборке.
func (s *Service) ListWasteRequests(uid int64, f models.WasteRequestFilter) (*models.WasteRequestPage, error) {
	const op = "stub.domain.ListWasteRequests"

	offset := 0
	if f.Cursor != "" {
		n, err := strconv.Atoi(f.Cursor)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		offset = n
	}

	limit := f.Limit
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userLocked(uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var visible []models.WasteRequest
	for _, r := range s.requests {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if !canSee(u, r) {
			continue
		}
		visible = append(visible, cloneRequest(r))
	}

	page := &models.WasteRequestPage{Items: []models.WasteRequest{}}
	if offset >= len(visible) {
		return page, nil
	}

	end := min(offset+limit, len(visible))
	page.Items = visible[offset:end]
	if end < len(visible) {
		page.NextCursor = strconv.Itoa(end)
	}

	return page, nil
}

func canSee(u *user, r *models.WasteRequest) bool {
	switch {
	case isAdmin(u), r.UserID == u.ID:
		return true
	case u.HasRole(models.RoleDriver):
		return r.Status == models.WasteRequestPending || (r.DriverID != nil && *r.DriverID == u.ID)
	default:
		return false
	}
}

func (s *Service) CreateWasteRequest(uid int64, in models.CreateWasteRequest) (*models.WasteRequest, error) {
	const op = "stub.domain.CreateWasteRequest"

	if !slices.Contains(wasteCategories, in.Category) || in.VolumeLiters <= 0 || strings.TrimSpace(in.Address.Line) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.userLocked(uid); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r := &models.WasteRequest{
		ID:           uuid.NewString(),
		UserID:       uid,
		Category:     in.Category,
		VolumeLiters: in.VolumeLiters,
		Address:      in.Address,
		PickupAt:     in.PickupAt,
		Status:       models.WasteRequestPending,
		Note:         in.Note,
		CreatedAt:    s.now(),
	}
	s.requests = append(s.requests, r)

	out := cloneRequest(r)
	return &out, nil
}

func (s *Service) GetWasteRequest(uid int64, id string) (*models.WasteRequest, error) {
	const op = "stub.domain.GetWasteRequest"

	s.mu.Lock()
	defer s.mu.Unlock()

	u, r, err := s.requestLocked(uid, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !canSee(u, r) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	out := cloneRequest(r)
	return &out, nil
}

// CancelWasteRequest - владелец отменяет ещё не выполненную заявку.
func (s *Service) CancelWasteRequest(uid int64, id string) (*models.WasteRequest, error) {
	const op = "stub.domain.CancelWasteRequest"

	return s.transition(op, uid, id, func(u *user, r *models.WasteRequest) error {
		if r.UserID != u.ID && !isAdmin(u) {
			return ErrForbidden
		}
		if r.Status != models.WasteRequestPending && r.Status != models.WasteRequestAccepted {
			return ErrConflict
		}

		r.Status = models.WasteRequestCanceled
		return nil
	})
}

// AcceptWasteRequest - водитель берёт свободную заявку.
func (s *Service) AcceptWasteRequest(uid int64, id string) (*models.WasteRequest, error) {
	const op = "stub.domain.AcceptWasteRequest"

	return s.transition(op, uid, id, func(u *user, r *models.WasteRequest) error {
		if !u.HasRole(models.RoleDriver) {
			return ErrForbidden
		}
		if r.Status != models.WasteRequestPending {
			return ErrConflict
		}

		driver := u.ID
		r.DriverID = &driver
		r.Status = models.WasteRequestAccepted
		return nil
	})
}

// CompleteWasteRequest - назначенный водитель закрывает заявку.
func (s *Service) CompleteWasteRequest(uid int64, id string) (*models.WasteRequest, error) {
	const op = "stub.domain.CompleteWasteRequest"

	return s.transition(op, uid, id, func(u *user, r *models.WasteRequest) error {
		if r.DriverID == nil || *r.DriverID != u.ID {
			return ErrForbidden
		}
		if r.Status != models.WasteRequestAccepted {
			return ErrConflict
		}

		r.Status = models.WasteRequestCompleted
		return nil
	})
}

func (s *Service) transition(op string, uid int64, id string, apply func(*user, *models.WasteRequest) error) (*models.WasteRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, r, err := s.requestLocked(uid, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !canSee(u, r) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if err := apply(u, r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := cloneRequest(r)
	return &out, nil
}

func (s *Service) requestLocked(uid int64, id string) (*user, *models.WasteRequest, error) {
	u, err := s.userLocked(uid)
	if err != nil {
		return nil, nil, err
	}

	for _, r := range s.requests {
		if r.ID == id {
			return u, r, nil
		}
	}

	return nil, nil, ErrNotFound
}

func (s *Service) ListPaymentMethods(uid int64) ([]models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PaymentMethod, 0, len(s.payments[uid]))
	for _, p := range s.payments[uid] {
		out = append(out, *p)
	}

	return out, nil
}

// RegisterPaymentMethod сохраняет только последние 4 символа токена провайдера.
// Первый способ оплаты становится основным.
func (s *Service) RegisterPaymentMethod(uid int64, in models.RegisterPaymentMethodRequest) (*models.PaymentMethod, error) {
	const op = "stub.domain.RegisterPaymentMethod"

	if in.Kind == "" || len(in.ProviderToken) < 4 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.userLocked(uid); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	list := s.payments[uid]
	pm := &models.PaymentMethod{
		ID:        uuid.NewString(),
		Kind:      in.Kind,
		Last4:     in.ProviderToken[len(in.ProviderToken)-4:],
		Holder:    in.Holder,
		IsDefault: in.MakeDefault || len(list) == 0,
	}

	if pm.IsDefault {
		for _, p := range list {
			p.IsDefault = false
		}
	}
	s.payments[uid] = append(list, pm)

	out := *pm
	return &out, nil
}

func (s *Service) DeletePaymentMethod(uid int64, id string) error {
	const op = "stub.domain.DeletePaymentMethod"

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.payments[uid]
	i := slices.IndexFunc(list, func(p *models.PaymentMethod) bool { return p.ID == id })
	if i < 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	s.payments[uid] = slices.Delete(list, i, i+1)
	return nil
}

// SearchAddresses - подстрочный поиск по строке адреса, городу и индексу.
func (s *Service) SearchAddresses(query string) []models.Address {
	q := strings.ToLower(strings.TrimSpace(query))

	out := []models.Address{}
	if q == "" {
		return out
	}

	for _, a := range s.catalog {
		hay := strings.ToLower(a.Line + " " + a.City + " " + a.PostalCode)
		if strings.Contains(hay, q) {
			out = append(out, a)
		}
	}

	return out
}

// SubmitRoleApplication - заявка на роль DRIVER или OPERATIONS_ADMIN.
func (s *Service) SubmitRoleApplication(uid int64, in models.SubmitRoleApplicationRequest) (*models.RoleApplication, error) {
	const op = "stub.domain.SubmitRoleApplication"

	if in.Role != models.RoleDriver && in.Role != models.RoleOperationsAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userLocked(uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if u.HasRole(in.Role) {
		return nil, fmt.Errorf("%s: %w", op, ErrConflict)
	}

	for _, a := range s.roles {
		if a.UserID == uid && a.Role == in.Role && a.Status == models.RoleApplicationPending {
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		}
	}

	a := &models.RoleApplication{
		ID:          uuid.NewString(),
		UserID:      uid,
		Role:        in.Role,
		Status:      models.RoleApplicationPending,
		Details:     in.Details,
		SubmittedAt: s.now(),
	}
	s.roles = append(s.roles, a)

	out := *a
	return &out, nil
}

// ListRoleApplications: системному администратору - все заявки, остальным - свои.
func (s *Service) ListRoleApplications(uid int64, status string) ([]models.RoleApplication, error) {
	const op = "stub.domain.ListRoleApplications"

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userLocked(uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	all := u.HasRole(models.RoleSystemAdmin)
	out := []models.RoleApplication{}
	for _, a := range s.roles {
		if (all || a.UserID == uid) && (status == "" || a.Status == status) {
			out = append(out, *a)
		}
	}

	return out, nil
}

// ReviewRoleApplication - решение системного администратора. Одобрение
// сразу выдаёт роль пользователю.
func (s *Service) ReviewRoleApplication(uid int64, id string, in models.ReviewRoleApplicationRequest) (*models.RoleApplication, error) {
	const op = "stub.domain.ReviewRoleApplication"

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userLocked(uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !u.HasRole(models.RoleSystemAdmin) {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	i := slices.IndexFunc(s.roles, func(a *models.RoleApplication) bool { return a.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	a := s.roles[i]
	if a.Status != models.RoleApplicationPending {
		return nil, fmt.Errorf("%s: %w", op, ErrConflict)
	}

	a.Status = models.RoleApplicationRejected
	if in.Approve {
		a.Status = models.RoleApplicationApproved
		if applicant, ok := s.users[a.UserID]; ok && !applicant.HasRole(a.Role) {
			applicant.Roles = append(applicant.Roles, a.Role)
		}
	}

	out := *a
	return &out, nil
}

func (s *Service) adminLocked(uid int64) error {
	u, err := s.userLocked(uid)
	if err != nil {
		return err
	}

	if !isAdmin(u) {
		return ErrForbidden
	}

	return nil
}

func cloneArea(a *models.ServiceArea) models.ServiceArea {
	out := *a
	out.Postals = append([]string(nil), a.Postals...)
	return out
}

func (s *Service) ListServiceAreas(uid int64) ([]models.ServiceArea, error) {
	const op = "stub.domain.ListServiceAreas"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.adminLocked(uid); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]models.ServiceArea, 0, len(s.areas))
	for _, a := range s.areas {
		out = append(out, cloneArea(a))
	}
	slices.SortFunc(out, func(a, b models.ServiceArea) int { return strings.Compare(a.Name, b.Name) })

	return out, nil
}

func (s *Service) CreateServiceArea(uid int64, in models.ServiceArea) (*models.ServiceArea, error) {
	const op = "stub.domain.CreateServiceArea"

	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.City) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.adminLocked(uid); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := cloneArea(&in)
	a.ID = uuid.NewString()
	s.areas[a.ID] = &a

	out := cloneArea(&a)
	return &out, nil
}

func (s *Service) UpdateServiceArea(uid int64, in models.ServiceArea) (*models.ServiceArea, error) {
	const op = "stub.domain.UpdateServiceArea"

	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.City) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.adminLocked(uid); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, ok := s.areas[in.ID]; !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	a := cloneArea(&in)
	s.areas[a.ID] = &a

	out := cloneArea(&a)
	return &out, nil
}

func (s *Service) DeleteServiceArea(uid int64, id string) error {
	const op = "stub.domain.DeleteServiceArea"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.adminLocked(uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, ok := s.areas[id]; !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	delete(s.areas, id)
	return nil
}
