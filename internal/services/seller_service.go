package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"salesdesk/internal/domain"
	applog "salesdesk/internal/log"
	"salesdesk/internal/repos"
	"salesdesk/internal/validate"
)

// SellerService is the admin-side account management.
type SellerService struct {
	Users      *repos.UserRepo
	BcryptCost int
	Now        func() time.Time
}

// NewUser is the input of Create. Role defaults to seller.
type NewUser struct {
	Email                 string `json:"email"`
	Password              string `json:"password"`
	Name                  string `json:"name"`
	Role                  string `json:"role"`
	Phone                 string `json:"phone"`
	NIF                   string `json:"nif"`
	PassportNumber        string `json:"passport_number"`
	ProfilePicture        string `json:"profile_picture"`
	EmergencyContactName  string `json:"emergency_contact_name"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`
	Address               string `json:"address"`
}

// UserUpdate is a partial update; nil fields stay as they are.
type UserUpdate struct {
	Email                 *string `json:"email"`
	Password              *string `json:"password"`
	Name                  *string `json:"name"`
	Phone                 *string `json:"phone"`
	NIF                   *string `json:"nif"`
	PassportNumber        *string `json:"passport_number"`
	ProfilePicture        *string `json:"profile_picture"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone"`
	Address               *string `json:"address"`
}

func (s *SellerService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *SellerService) cost() int {
	if s.BcryptCost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return s.BcryptCost
}

func (s *SellerService) Create(ctx context.Context, caller domain.Caller, in NewUser) (*domain.PublicUser, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "create user"}
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, &domain.ValidationError{Field: "email", Reason: "malformed email"}
	}
	name, ok := validate.Name(in.Name)
	if !ok {
		return nil, &domain.ValidationError{Field: "name", Reason: "required"}
	}
	if !validate.NewPassword(in.Password) {
		return nil, &domain.ValidationError{Field: "password", Reason: "must be 6 to 72 characters"}
	}
	phone, ok := validate.Phone(in.Phone)
	if !ok {
		return nil, &domain.ValidationError{Field: "phone", Reason: "malformed phone"}
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	switch role {
	case "":
		role = domain.RoleSeller
	case domain.RoleSeller, domain.RoleAdmin:
	default:
		return nil, &domain.ValidationError{Field: "role", Reason: "must be admin or seller"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return nil, err
	}
	now := s.now()
	u := &domain.User{
		ID:                    uuid.NewString(),
		Email:                 strings.ToLower(email),
		Name:                  name,
		Hash:                  string(hash),
		Role:                  role,
		Active:                true,
		Phone:                 phone,
		NIF:                   optional(in.NIF),
		PassportNumber:        optional(in.PassportNumber),
		ProfilePicture:        strings.TrimSpace(in.ProfilePicture),
		EmergencyContactName:  strings.TrimSpace(in.EmergencyContactName),
		EmergencyContactPhone: strings.TrimSpace(in.EmergencyContactPhone),
		Address:               strings.TrimSpace(in.Address),
		CreatedBy:             caller.ID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, &domain.ConflictError{Reason: "email, NIF or passport number already registered"}
		}
		return nil, err
	}
	applog.Audit(nil, "user.create", map[string]any{"user_id": u.ID, "role": u.Role, "by": caller.ID})
	p := u.Public()
	return &p, nil
}

func (s *SellerService) Update(ctx context.Context, caller domain.Caller, id string, in UserUpdate) (*domain.PublicUser, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "update user"}
	}
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email, ok := validate.Email(*in.Email)
		if !ok {
			return nil, &domain.ValidationError{Field: "email", Reason: "malformed email"}
		}
		u.Email = strings.ToLower(email)
	}
	if in.Name != nil {
		name, ok := validate.Name(*in.Name)
		if !ok {
			return nil, &domain.ValidationError{Field: "name", Reason: "required"}
		}
		u.Name = name
	}
	if in.Password != nil {
		if !validate.NewPassword(*in.Password) {
			return nil, &domain.ValidationError{Field: "password", Reason: "must be 6 to 72 characters"}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.cost())
		if err != nil {
			return nil, err
		}
		u.Hash = string(hash)
	}
	if in.Phone != nil {
		phone, ok := validate.Phone(*in.Phone)
		if !ok {
			return nil, &domain.ValidationError{Field: "phone", Reason: "malformed phone"}
		}
		u.Phone = phone
	}
	if in.NIF != nil {
		u.NIF = optional(*in.NIF)
	}
	if in.PassportNumber != nil {
		u.PassportNumber = optional(*in.PassportNumber)
	}
	if in.ProfilePicture != nil {
		u.ProfilePicture = strings.TrimSpace(*in.ProfilePicture)
	}
	if in.EmergencyContactName != nil {
		u.EmergencyContactName = strings.TrimSpace(*in.EmergencyContactName)
	}
	if in.EmergencyContactPhone != nil {
		u.EmergencyContactPhone = strings.TrimSpace(*in.EmergencyContactPhone)
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}
	u.UpdatedAt = s.now()

	if err := s.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, &domain.ConflictError{Reason: "email, NIF or passport number already registered"}
		}
		return nil, err
	}
	applog.Audit(nil, "user.update", map[string]any{"user_id": u.ID, "by": caller.ID, "password_changed": in.Password != nil})
	p := u.Public()
	return &p, nil
}

// SetStatus activates or deactivates a seller. Deactivation ends every
// open session of that seller.
func (s *SellerService) SetStatus(ctx context.Context, caller domain.Caller, id string, active bool) (*domain.PublicUser, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "change user status"}
	}
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() && !active {
		return nil, &domain.ValidationError{Field: "is_active", Reason: "administrators cannot be deactivated"}
	}
	if err := s.Users.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	if !active {
		if err := s.Users.PurgeSessions(ctx, id); err != nil {
			return nil, err
		}
	}
	u.Active = active
	applog.Audit(nil, "user.status", map[string]any{"user_id": id, "active": active, "by": caller.ID})
	p := u.Public()
	return &p, nil
}

func (s *SellerService) List(ctx context.Context, caller domain.Caller) ([]domain.PublicUser, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "list sellers"}
	}
	users, err := s.Users.ByRole(ctx, domain.RoleSeller)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

func (s *SellerService) Get(ctx context.Context, caller domain.Caller, id string) (*domain.PublicUser, error) {
	if !caller.IsAdmin() && caller.ID != id {
		return nil, &domain.ForbiddenError{Action: "read user"}
	}
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.Public()
	return &p, nil
}

func (s *SellerService) find(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, id)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, &domain.NotFoundError{Resource: "user", ID: id}
	}
	return u, err
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
