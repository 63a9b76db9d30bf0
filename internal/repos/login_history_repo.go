package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"salesdesk/internal/domain"
)

const loginCols = `id, user_id, email, ip, user_agent, device_type, success, failure_reason, suspicious, created_at`

type LoginHistoryRepo struct{ db sqlx.ExtContext }

func NewLoginHistoryRepo(db sqlx.ExtContext) *LoginHistoryRepo { return &LoginHistoryRepo{db: db} }

func (r *LoginHistoryRepo) Insert(ctx context.Context, rec *domain.LoginRecord) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO login_history (`+loginCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), rec.ID, nullString(rec.UserID), rec.Email, rec.IP, rec.UserAgent, rec.DeviceType,
		rec.Success, rec.FailureReason, rec.Suspicious, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert login record: %w", err)
	}
	return nil
}

func (r *LoginHistoryRepo) ByUser(ctx context.Context, userID string, limit int) ([]domain.LoginRecord, error) {
	return r.query(ctx, `WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, clampLimit(limit, 50))
}

func (r *LoginHistoryRepo) All(ctx context.Context, limit int) ([]domain.LoginRecord, error) {
	return r.query(ctx, `ORDER BY created_at DESC LIMIT ?`, clampLimit(limit, 100))
}

func (r *LoginHistoryRepo) Failed(ctx context.Context, limit int) ([]domain.LoginRecord, error) {
	return r.query(ctx, `WHERE success = ? ORDER BY created_at DESC LIMIT ?`, false, clampLimit(limit, 50))
}

func (r *LoginHistoryRepo) Since(ctx context.Context, t time.Time) ([]domain.LoginRecord, error) {
	return r.query(ctx, `WHERE created_at >= ? ORDER BY created_at DESC`, t)
}

// LastSuccess is the most recent successful login of a user, or ErrNotFound.
func (r *LoginHistoryRepo) LastSuccess(ctx context.Context, userID string) (*domain.LoginRecord, error) {
	recs, err := r.query(ctx, `WHERE user_id = ? AND success = ? ORDER BY created_at DESC LIMIT 1`, userID, true)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return &recs[0], nil
}

func (r *LoginHistoryRepo) query(ctx context.Context, tail string, args ...any) ([]domain.LoginRecord, error) {
	out := []domain.LoginRecord{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`SELECT `+loginCols+` FROM login_history `+tail), args...)
	return out, err
}

func clampLimit(n, def int) int {
	if n <= 0 {
		return def
	}
	if n > 1000 {
		return 1000
	}
	return n
}
