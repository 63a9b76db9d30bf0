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
	"salesdesk/internal/notify"
	"salesdesk/internal/repos"
	"salesdesk/internal/security"
)

// LoginPolicy holds the knobs of the login heuristics.
type LoginPolicy struct {
	OddHourAfter  int // hours strictly after this are odd
	OddHourBefore int // hours strictly before this are odd
	DeviceWindow  time.Duration
	SessionTTL    time.Duration
}

func DefaultLoginPolicy() LoginPolicy {
	return LoginPolicy{OddHourAfter: 22, OddHourBefore: 6, DeviceWindow: 24 * time.Hour, SessionTTL: 24 * time.Hour}
}

type AuthService struct {
	Users         *repos.UserRepo
	History       *repos.LoginHistoryRepo
	Throttle      security.Throttle
	Blocklist     security.IPBlocklist
	Notifier      notify.Notifier
	NotifyTimeout time.Duration
	Policy        LoginPolicy
	Now           func() time.Time
}

type LoginAttempt struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

type LoginResult struct {
	Token      string
	ExpiresAt  time.Time
	User       *domain.User
	Suspicious bool
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *AuthService) throttle() security.Throttle {
	if s.Throttle == nil {
		return security.NopThrottle{}
	}
	return s.Throttle
}

// Login checks credentials and opens a session. Every attempt, good or bad,
// lands in the login history.
func (s *AuthService) Login(ctx context.Context, in LoginAttempt) (*LoginResult, error) {
	now := s.now()
	email := strings.ToLower(strings.TrimSpace(in.Email))
	rec := &domain.LoginRecord{
		ID:         uuid.NewString(),
		Email:      email,
		IP:         in.IP,
		UserAgent:  in.UserAgent,
		DeviceType: security.DeviceType(in.UserAgent),
		CreatedAt:  now.UTC(),
	}

	if s.Blocklist.Blocked(in.IP) {
		s.reject(ctx, rec, "ip blocked")
		return nil, ErrIPBlocked
	}

	key := in.IP + "|" + email
	locked, err := s.throttle().Locked(ctx, key)
	if err != nil {
		applog.Error(nil, "auth.throttle", err, nil)
	}
	if locked {
		s.reject(ctx, rec, "too many attempts")
		return nil, ErrTooManyAttempts
	}

	u, err := s.Users.ByEmail(ctx, email)
	if errors.Is(err, repos.ErrNotFound) {
		s.fail(ctx, key)
		s.reject(ctx, rec, "user not found")
		return nil, ErrBadCreds
	}
	if err != nil {
		return nil, err
	}
	rec.UserID = &u.ID

	if !u.Active {
		s.reject(ctx, rec, "account disabled")
		return nil, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(in.Password)) != nil {
		s.fail(ctx, key)
		s.reject(ctx, rec, "bad password")
		return nil, ErrBadCreds
	}
	if err := s.throttle().Reset(ctx, key); err != nil {
		applog.Error(nil, "auth.throttle", err, nil)
	}

	reasons := s.suspicious(ctx, u.ID, rec.DeviceType, now)
	rec.Success = true
	rec.Suspicious = len(reasons) > 0
	if err := s.History.Insert(ctx, rec); err != nil {
		return nil, err
	}

	token := uuid.NewString()
	expires := now.Add(s.Policy.SessionTTL).UTC()
	if err := s.Users.BindSession(ctx, token, u.ID, now.UTC(), expires); err != nil {
		return nil, err
	}

	if rec.Suspicious {
		applog.Security(nil, "auth.login.suspicious", map[string]any{
			"user_id": u.ID, "ip": in.IP, "device": rec.DeviceType, "reasons": reasons,
		})
		s.dispatch(ctx, notify.LoginSuspicious, u, rec, reasons)
	}
	if u.Role == domain.RoleSeller {
		s.dispatch(ctx, notify.LoginSeller, u, rec, nil)
	}
	applog.Audit(nil, "auth.login", map[string]any{"user_id": u.ID, "role": u.Role, "device": rec.DeviceType})
	return &LoginResult{Token: token, ExpiresAt: expires, User: u, Suspicious: rec.Suspicious}, nil
}

// suspicious returns why a successful login looks unusual, if it does.
func (s *AuthService) suspicious(ctx context.Context, userID, device string, now time.Time) []string {
	var reasons []string
	if h := now.Hour(); h > s.Policy.OddHourAfter || h < s.Policy.OddHourBefore {
		reasons = append(reasons, "odd hour")
	}
	last, err := s.History.LastSuccess(ctx, userID)
	if err != nil {
		if !errors.Is(err, repos.ErrNotFound) {
			applog.Error(nil, "auth.history", err, nil)
		}
		return reasons
	}
	if last.DeviceType != device && now.UTC().Sub(last.CreatedAt) <= s.Policy.DeviceWindow {
		reasons = append(reasons, "device change")
	}
	return reasons
}

func (s *AuthService) fail(ctx context.Context, key string) {
	if err := s.throttle().Fail(ctx, key); err != nil {
		applog.Error(nil, "auth.throttle", err, nil)
	}
}

func (s *AuthService) reject(ctx context.Context, rec *domain.LoginRecord, reason string) {
	rec.FailureReason = reason
	if err := s.History.Insert(ctx, rec); err != nil {
		applog.Error(nil, "auth.history", err, nil)
	}
	applog.Security(nil, "auth.login.fail", map[string]any{"email": rec.Email, "ip": rec.IP, "reason": reason})
}

func (s *AuthService) dispatch(ctx context.Context, kind string, u *domain.User, rec *domain.LoginRecord, reasons []string) {
	notify.Dispatch(ctx, s.Notifier, s.NotifyTimeout, notify.Event{
		Type: kind,
		Key:  u.ID,
		At:   rec.CreatedAt,
		Payload: map[string]any{
			"user_id": u.ID, "email": u.Email, "name": u.Name,
			"ip": rec.IP, "device_type": rec.DeviceType, "reasons": reasons,
		},
	})
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Users.UnbindSession(ctx, token)
}

// CurrentUser resolves a session token. Deactivated sellers lose access
// even while their token is still live.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrSessionNotActive
	}
	u, err := s.Users.SessionUser(ctx, token, s.now().UTC())
	if errors.Is(err, repos.ErrNotFound) {
		return nil, ErrSessionNotActive
	}
	if err != nil {
		return nil, err
	}
	if !u.Active && !u.IsAdmin() {
		return nil, ErrAccountDisabled
	}
	return u, nil
}
