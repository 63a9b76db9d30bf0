package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"salesdesk/internal/domain"
)

const userCols = `id, email, name, password_hash, role, is_active, phone, nif, passport_number, profile_picture,
	emergency_contact_name, emergency_contact_phone, address, created_by, created_at, updated_at`

type UserRepo struct{ DB sqlx.ExtContext }

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.DB, &u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER(?)`), email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.DB, &u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ByRole lists users of one role, newest first.
func (r *UserRepo) ByRole(ctx context.Context, role string) ([]domain.User, error) {
	out := []domain.User{}
	err := sqlx.SelectContext(ctx, r.DB, &out, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE role = ? ORDER BY created_at DESC`), role)
	return out, err
}

func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.DB, &n, r.DB.Rebind(`SELECT COUNT(*) FROM users WHERE role = ?`), role)
	return n, err
}

// Create inserts a user. Email, NIF and passport collisions yield ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO users (`+userCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), u.ID, u.Email, u.Name, u.Hash, u.Role, u.Active, u.Phone, nullString(u.NIF), nullString(u.PassportNumber),
		u.ProfilePicture, u.EmergencyContactName, u.EmergencyContactPhone, u.Address, u.CreatedBy, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUnique(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update rewrites every mutable column of u.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE users
		SET email = ?, name = ?, password_hash = ?, is_active = ?, phone = ?, nif = ?, passport_number = ?,
		    profile_picture = ?, emergency_contact_name = ?, emergency_contact_phone = ?, address = ?, updated_at = ?
		WHERE id = ?
	`), u.Email, u.Name, u.Hash, u.Active, u.Phone, nullString(u.NIF), nullString(u.PassportNumber),
		u.ProfilePicture, u.EmergencyContactName, u.EmergencyContactPhone, u.Address, u.UpdatedAt, u.ID)
	if err != nil {
		if isUnique(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	return expectOne(res)
}

func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`),
		active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return expectOne(res)
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string, now, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)
	`), sid, userID, now, expires)
	return err
}

// SessionUser resolves a live session to its user.
func (r *UserRepo) SessionUser(ctx context.Context, sid string, now time.Time) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.DB, &u, r.DB.Rebind(`
		SELECT u.id, u.email, u.name, u.password_hash, u.role, u.is_active, u.phone, u.nif, u.passport_number,
		       u.profile_picture, u.emergency_contact_name, u.emergency_contact_phone, u.address, u.created_by,
		       u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ? AND s.expires_at > ?`), sid, now)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sessions WHERE id = ?`), sid)
	return err
}

// PurgeSessions drops every session of a user, e.g. after deactivation.
func (r *UserRepo) PurgeSessions(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sessions WHERE user_id = ?`), userID)
	return err
}

func nullString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
