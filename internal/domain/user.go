package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleSeller = "seller"
)

type User struct {
	ID                    string    `db:"id"`
	Email                 string    `db:"email"`
	Name                  string    `db:"name"`
	Hash                  string    `db:"password_hash"`
	Role                  string    `db:"role"`
	Active                bool      `db:"is_active"`
	Phone                 string    `db:"phone"`
	NIF                   *string   `db:"nif"`
	PassportNumber        *string   `db:"passport_number"`
	ProfilePicture        string    `db:"profile_picture"`
	EmergencyContactName  string    `db:"emergency_contact_name"`
	EmergencyContactPhone string    `db:"emergency_contact_phone"`
	Address               string    `db:"address"`
	CreatedBy             string    `db:"created_by"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) Caller() Caller { return Caller{ID: u.ID, Role: u.Role} }

// PublicUser is what leaves the process. It has no password field to forget.
type PublicUser struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	Role                  string    `json:"role"`
	Active                bool      `json:"is_active"`
	Phone                 string    `json:"phone,omitempty"`
	NIF                   string    `json:"nif,omitempty"`
	PassportNumber        string    `json:"passport_number,omitempty"`
	ProfilePicture        string    `json:"profile_picture,omitempty"`
	EmergencyContactName  string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string    `json:"emergency_contact_phone,omitempty"`
	Address               string    `json:"address,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

func (u *User) Public() PublicUser {
	p := PublicUser{
		ID:                    u.ID,
		Email:                 u.Email,
		Name:                  u.Name,
		Role:                  u.Role,
		Active:                u.Active,
		Phone:                 u.Phone,
		ProfilePicture:        u.ProfilePicture,
		EmergencyContactName:  u.EmergencyContactName,
		EmergencyContactPhone: u.EmergencyContactPhone,
		Address:               u.Address,
		CreatedAt:             u.CreatedAt,
	}
	if u.NIF != nil {
		p.NIF = *u.NIF
	}
	if u.PassportNumber != nil {
		p.PassportNumber = *u.PassportNumber
	}
	return p
}

// Caller is the authenticated identity handed to services by the HTTP layer.
type Caller struct {
	ID   string
	Role string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
